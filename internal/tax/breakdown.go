package tax

// RateTotal accumulates HT and TVA for one rate.
type RateTotal struct {
	Rate Rate
	HT   int64
	TVA  int64
}

// Breakdown aggregates line breakdowns into per-rate buckets. Lines are added
// already rounded, so bucket totals reconcile cent-for-cent with receipts.
type Breakdown struct {
	byRate   map[Rate]*RateTotal
	totalHT  int64
	totalTVA int64
	totalTTC int64
}

func NewBreakdown() *Breakdown {
	return &Breakdown{byRate: make(map[Rate]*RateTotal)}
}

func (b *Breakdown) Add(line LineBreakdown) {
	bucket, ok := b.byRate[line.Rate]
	if !ok {
		bucket = &RateTotal{Rate: line.Rate}
		b.byRate[line.Rate] = bucket
	}
	bucket.HT += line.TotalHT
	bucket.TVA += line.TotalTVA

	b.totalHT += line.TotalHT
	b.totalTVA += line.TotalTVA
	b.totalTTC += line.TotalTTC
}

func (b *Breakdown) TotalHT() int64  { return b.totalHT }
func (b *Breakdown) TotalTVA() int64 { return b.totalTVA }
func (b *Breakdown) TotalTTC() int64 { return b.totalTTC }

// ForRate returns the bucket for a rate, zero-valued when absent.
func (b *Breakdown) ForRate(r Rate) RateTotal {
	if bucket, ok := b.byRate[r]; ok {
		return *bucket
	}
	return RateTotal{Rate: r}
}

// Rates returns the supported rates that received at least one line,
// ascending.
func (b *Breakdown) Rates() []Rate {
	out := make([]Rate, 0, len(b.byRate))
	for _, r := range SupportedRates() {
		if _, ok := b.byRate[r]; ok {
			out = append(out, r)
		}
	}
	return out
}
