package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tabresto/fiscal/internal/clock"
	"github.com/tabresto/fiscal/internal/config"
	settingsdomain "github.com/tabresto/fiscal/internal/fiscalsettings/domain"
	"github.com/tabresto/fiscal/internal/locking"
	"github.com/tabresto/fiscal/internal/observability/metrics"
	orderdomain "github.com/tabresto/fiscal/internal/order/domain"
	recapdomain "github.com/tabresto/fiscal/internal/recap/domain"
	"github.com/tabresto/fiscal/internal/tax"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// generateLockTTL bounds how long a crashed generation can hold the
// per-period lock when redis backs it.
const generateLockTTL = 2 * time.Minute

type ServiceParam struct {
	fx.In

	Recaps   recapdomain.Repository
	Orders   orderdomain.Repository
	Settings settingsdomain.Repository
	Lock     *locking.KeyedLock
	Policy   *config.FiscalPolicyHolder
	Metrics  *metrics.Metrics `optional:"true"`
	GenID    *snowflake.Node
	Clock    clock.Clock
	Log      *zap.Logger
}

type service struct {
	recaps   recapdomain.Repository
	orders   orderdomain.Repository
	settings settingsdomain.Repository
	lock     *locking.KeyedLock
	policy   *config.FiscalPolicyHolder
	metrics  *metrics.Metrics
	genID    *snowflake.Node
	clock    clock.Clock
	log      *zap.Logger
}

func NewService(p ServiceParam) recapdomain.Service {
	return &service{
		recaps:   p.Recaps,
		orders:   p.Orders,
		settings: p.Settings,
		lock:     p.Lock,
		policy:   p.Policy,
		metrics:  p.Metrics,
		genID:    p.GenID,
		clock:    p.Clock,
		log:      p.Log.Named("recap"),
	}
}

func (s *service) Get(ctx context.Context, merchantID string, year, month int) (*recapdomain.Response, error) {
	id, err := s.checkRequest(ctx, merchantID, year, month)
	if err != nil {
		return nil, err
	}
	recap, err := s.recaps.FindByPeriod(ctx, id, year, month)
	if err != nil {
		return nil, err
	}
	if recap == nil {
		return nil, recapdomain.ErrNotFound
	}
	return toResponse(recap), nil
}

func (s *service) Generate(ctx context.Context, merchantID string, year, month int) (*recapdomain.Response, error) {
	id, err := s.checkRequest(ctx, merchantID, year, month)
	if err != nil {
		return nil, err
	}

	// Fast path before taking the lock: a stored recap is authoritative
	// until an explicit regeneration.
	existing, err := s.recaps.FindByPeriod(ctx, id, year, month)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return toResponse(existing), nil
	}

	release, err := s.lock.Acquire(ctx, lockKey(id, year, month), generateLockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-check under the lock; a concurrent Generate may have won.
	existing, err = s.recaps.FindByPeriod(ctx, id, year, month)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return toResponse(existing), nil
	}

	recap, err := s.compute(ctx, id, year, month)
	if err != nil {
		return nil, err
	}
	if err := s.recaps.Replace(ctx, recap); err != nil {
		return nil, err
	}

	s.metrics.IncRecapGeneration(ctx, "generate")
	s.log.Info("generated vat recap",
		zap.String("merchant_id", merchantID),
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int64("invoice_count", recap.InvoiceCount),
		zap.Int64("total_ttc_cents", recap.TotalTTCCents),
	)
	return toResponse(recap), nil
}

func (s *service) Regenerate(ctx context.Context, merchantID string, year, month int) (*recapdomain.Response, error) {
	id, err := s.checkRequest(ctx, merchantID, year, month)
	if err != nil {
		return nil, err
	}

	release, err := s.lock.Acquire(ctx, lockKey(id, year, month), generateLockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	recap, err := s.compute(ctx, id, year, month)
	if err != nil {
		return nil, err
	}
	if err := s.recaps.Replace(ctx, recap); err != nil {
		return nil, err
	}

	s.metrics.IncRecapGeneration(ctx, "regenerate")
	s.log.Info("regenerated vat recap",
		zap.String("merchant_id", merchantID),
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int64("invoice_count", recap.InvoiceCount),
		zap.Int64("total_ttc_cents", recap.TotalTTCCents),
	)
	return toResponse(recap), nil
}

// compute aggregates every paid order of the period into a fresh recap row.
func (s *service) compute(ctx context.Context, merchantID snowflake.ID, year, month int) (*recapdomain.RecapitulatifTVA, error) {
	from := periodStart(year, month)
	to := from.AddDate(0, 1, 0)

	orders, err := s.orders.ListPaidOrders(ctx, merchantID, from, to)
	if err != nil {
		return nil, err
	}

	policy := s.policy.Current()
	defaultRate, ok := tax.RateFromFraction(policy.DefaultRate)
	if !ok {
		defaultRate = tax.RateStandard
	}
	rates := tax.NewRateSet(policy.Rates)

	breakdown := tax.NewBreakdown()
	var tips, platformFees int64
	for _, order := range orders {
		tips += order.TipCents
		platformFees += order.PlatformFeeCents
		for _, line := range order.Lines {
			lb, err := tax.ComputeLine(line.UnitPriceCents, line.Quantity, rates.Narrow(line.VATRate), defaultRate)
			if err != nil {
				return nil, err
			}
			if lb.UsedDefaultRate {
				s.metrics.IncDefaultRateFallback(ctx, merchantID.String())
				s.log.Warn("order line computed at default vat rate",
					zap.String("merchant_id", merchantID.String()),
					zap.String("order_id", order.ID.String()),
					zap.String("line", line.Name),
					zap.String("rate", defaultRate.Percent()),
				)
			}
			breakdown.Add(lb)
		}
	}

	count := int64(len(orders))
	var averageTicket int64
	if count > 0 {
		averageTicket = int64(math.Round(float64(breakdown.TotalTTC()) / float64(count)))
	}

	reduced := breakdown.ForRate(tax.RateReduced)
	intermediate := breakdown.ForRate(tax.RateIntermediate)
	standard := breakdown.ForRate(tax.RateStandard)
	exempt := breakdown.ForRate(tax.RateExempt)

	return &recapdomain.RecapitulatifTVA{
		ID:         s.genID.Generate(),
		MerchantID: merchantID,
		Year:       year,
		Month:      month,

		TotalHTCents:   breakdown.TotalHT(),
		TotalTVACents:  breakdown.TotalTVA(),
		TotalTTCCents:  breakdown.TotalTTC(),
		TotalTipsCents: tips,

		BaseReducedCents:      reduced.HT,
		VATReducedCents:       reduced.TVA,
		BaseIntermediateCents: intermediate.HT,
		VATIntermediateCents:  intermediate.TVA,
		BaseStandardCents:     standard.HT,
		VATStandardCents:      standard.TVA,
		BaseExemptCents:       exempt.HT,

		InvoiceCount:       count,
		AverageTicketCents: averageTicket,
		PlatformFeeCents:   platformFees,

		GeneratedAt: s.clock.Now(),
	}, nil
}

// checkRequest validates the merchant, the period, and that the merchant's
// fiscal identity is configured.
func (s *service) checkRequest(ctx context.Context, merchantID string, year, month int) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(merchantID))
	if err != nil || id == 0 {
		return 0, recapdomain.ErrInvalidMerchant
	}
	if month < 1 || month > 12 || year < 2000 {
		return 0, recapdomain.ErrInvalidPeriod
	}
	if periodStart(year, month).After(s.clock.Now()) {
		return 0, recapdomain.ErrInvalidPeriod
	}

	settings, err := s.settings.FindByMerchant(ctx, id)
	if err != nil {
		return 0, err
	}
	if settings == nil {
		return 0, settingsdomain.ErrNotFound
	}
	if !settings.Configured() {
		return 0, settingsdomain.ErrNotConfigured
	}
	return id, nil
}

func periodStart(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

func lockKey(merchantID snowflake.ID, year, month int) string {
	return "recap:" + merchantID.String() + ":" + periodStart(year, month).Format("2006-01")
}

func toResponse(r *recapdomain.RecapitulatifTVA) *recapdomain.Response {
	rates := make([]recapdomain.RateLine, 0, 4)
	appendRate := func(rate tax.Rate, base, vat int64) {
		if base == 0 && vat == 0 {
			return
		}
		rates = append(rates, recapdomain.RateLine{
			Rate:      rate.Percent(),
			BaseCents: base,
			VATCents:  vat,
		})
	}
	appendRate(tax.RateExempt, r.BaseExemptCents, 0)
	appendRate(tax.RateReduced, r.BaseReducedCents, r.VATReducedCents)
	appendRate(tax.RateIntermediate, r.BaseIntermediateCents, r.VATIntermediateCents)
	appendRate(tax.RateStandard, r.BaseStandardCents, r.VATStandardCents)

	return &recapdomain.Response{
		ID:                 r.ID.String(),
		MerchantID:         r.MerchantID.String(),
		Year:               r.Year,
		Month:              r.Month,
		TotalHTCents:       r.TotalHTCents,
		TotalTVACents:      r.TotalTVACents,
		TotalTTCCents:      r.TotalTTCCents,
		TotalTipsCents:     r.TotalTipsCents,
		Rates:              rates,
		InvoiceCount:       r.InvoiceCount,
		AverageTicketCents: r.AverageTicketCents,
		PlatformFeeCents:   r.PlatformFeeCents,
		GeneratedAt:        r.GeneratedAt,
	}
}
