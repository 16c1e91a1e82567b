package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// FiscalPolicy carries the tax policy and accounting mappings that the
// computation and export engines read at runtime. It is hot-reloadable so a
// rate change (e.g. a new reduced rate) does not require a redeploy.
type FiscalPolicy struct {
	// DefaultRate is applied when an order line carries no explicit VAT
	// rate. The fallback is always logged and counted.
	DefaultRate float64 `mapstructure:"defaultRate"`

	// Rates is the closed set of supported VAT rates, as fractions.
	Rates []float64 `mapstructure:"rates"`

	// FEC journal and account mappings.
	JournalCode    string `mapstructure:"journalCode"`
	JournalLabel   string `mapstructure:"journalLabel"`
	SalesAccount   string `mapstructure:"salesAccount"`
	VATAccount     string `mapstructure:"vatAccount"`
	CashAccount    string `mapstructure:"cashAccount"`
	TipsAccount    string `mapstructure:"tipsAccount"`
}

func DefaultFiscalPolicy() FiscalPolicy {
	return FiscalPolicy{
		DefaultRate:  0.20,
		Rates:        []float64{0, 0.055, 0.10, 0.20},
		JournalCode:  "VT",
		JournalLabel: "Ventes",
		SalesAccount: "707000",
		VATAccount:   "445710",
		CashAccount:  "531000",
		TipsAccount:  "467000",
	}
}

// FiscalPolicyHolder exposes the current policy with atomic swap on reload.
type FiscalPolicyHolder struct {
	current atomic.Value // holds FiscalPolicy
}

func NewFiscalPolicyHolder() (*FiscalPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("fiscal")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/fiscal/config")
	v.AddConfigPath("/etc/fiscal")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FISCAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultFiscalPolicy()
		v.SetDefault("fiscal.defaultRate", defaults.DefaultRate)
		v.SetDefault("fiscal.rates", defaults.Rates)
		v.SetDefault("fiscal.journalCode", defaults.JournalCode)
		v.SetDefault("fiscal.journalLabel", defaults.JournalLabel)
		v.SetDefault("fiscal.salesAccount", defaults.SalesAccount)
		v.SetDefault("fiscal.vatAccount", defaults.VATAccount)
		v.SetDefault("fiscal.cashAccount", defaults.CashAccount)
		v.SetDefault("fiscal.tipsAccount", defaults.TipsAccount)
	}

	var policy FiscalPolicy
	if err := v.UnmarshalKey("fiscal", &policy); err != nil {
		return nil, err
	}
	if err := validateFiscalPolicy(policy); err != nil {
		return nil, err
	}

	holder := &FiscalPolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated FiscalPolicy
		if err := v.UnmarshalKey("fiscal", &updated); err != nil {
			log.Printf("[fiscal-config] reload failed: %v", err)
			return
		}
		if err := validateFiscalPolicy(updated); err != nil {
			log.Printf("[fiscal-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[fiscal-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// StaticFiscalPolicyHolder wraps a fixed policy with no file watching, for
// tools and tests that do not run against a config volume.
func StaticFiscalPolicyHolder(p FiscalPolicy) *FiscalPolicyHolder {
	holder := &FiscalPolicyHolder{}
	holder.current.Store(p)
	return holder
}

func (h *FiscalPolicyHolder) Current() FiscalPolicy {
	return h.current.Load().(FiscalPolicy)
}

func validateFiscalPolicy(p FiscalPolicy) error {
	if p.DefaultRate < 0 || p.DefaultRate >= 1 {
		return errors.New("fiscal: defaultRate must be a fraction in [0, 1)")
	}
	if len(p.Rates) == 0 {
		return errors.New("fiscal: rates must not be empty")
	}
	found := false
	for _, r := range p.Rates {
		if r < 0 || r >= 1 {
			return errors.New("fiscal: rates must be fractions in [0, 1)")
		}
		if r == p.DefaultRate {
			found = true
		}
	}
	if !found {
		return errors.New("fiscal: defaultRate must be one of rates")
	}
	if strings.TrimSpace(p.JournalCode) == "" {
		return errors.New("fiscal: journalCode is required")
	}
	return nil
}
