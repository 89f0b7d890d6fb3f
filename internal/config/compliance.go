package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ComplianceConfig carries the contractual constants of the franchise agreement.
type ComplianceConfig struct {
	MandatoryRatio float64 `mapstructure:"mandatoryRatio"`
	CommissionRate float64 `mapstructure:"commissionRate"`
	EntryFee       float64 `mapstructure:"entryFee"`
	Currency       string  `mapstructure:"currency"`
}

func DefaultComplianceConfig() ComplianceConfig {
	return ComplianceConfig{
		MandatoryRatio: 0.80,
		CommissionRate: 0.04,
		EntryFee:       50_000,
		Currency:       "EUR",
	}
}

// Ratio returns the mandatory purchase ratio as a fraction (0.8 for 80%).
func (c ComplianceConfig) Ratio() decimal.Decimal {
	return decimal.NewFromFloat(c.MandatoryRatio)
}

// ThresholdPercentage returns the ratio expressed in percent (80 for 0.8).
func (c ComplianceConfig) ThresholdPercentage() decimal.Decimal {
	return c.Ratio().Mul(decimal.NewFromInt(100))
}

func (c ComplianceConfig) Commission() decimal.Decimal {
	return decimal.NewFromFloat(c.CommissionRate)
}

func (c ComplianceConfig) EntryFeeAmount() decimal.Decimal {
	return decimal.NewFromFloat(c.EntryFee).Round(2)
}

type ComplianceConfigHolder struct {
	current atomic.Value // holds ComplianceConfig
}

var defaultComplianceConfigPaths = []string{
	"/var/lib/franchisehub/config",
	"/etc/franchisehub",
	".",
}

func NewComplianceConfigHolder(log *zap.Logger) (*ComplianceConfigHolder, error) {
	return newComplianceConfigHolder(log, defaultComplianceConfigPaths...)
}

// NewStaticComplianceConfig returns a holder pinned to cfg without file watching.
func NewStaticComplianceConfig(cfg ComplianceConfig) *ComplianceConfigHolder {
	holder := &ComplianceConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func newComplianceConfigHolder(log *zap.Logger, paths ...string) (*ComplianceConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("compliance.config")

	v := viper.New()
	v.SetConfigName("compliance")
	v.SetConfigType("yml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix("FRANCHISEHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultComplianceConfig()
	v.SetDefault("compliance.mandatoryRatio", defaults.MandatoryRatio)
	v.SetDefault("compliance.commissionRate", defaults.CommissionRate)
	v.SetDefault("compliance.entryFee", defaults.EntryFee)
	v.SetDefault("compliance.currency", defaults.Currency)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var cfg ComplianceConfig
	if err := v.UnmarshalKey("compliance", &cfg); err != nil {
		return nil, err
	}
	if err := validateComplianceConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticComplianceConfig(cfg)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ComplianceConfig
		if err := v.UnmarshalKey("compliance", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := validateComplianceConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *ComplianceConfigHolder) Get() ComplianceConfig {
	return h.current.Load().(ComplianceConfig)
}

func validateComplianceConfig(cfg ComplianceConfig) error {
	if cfg.MandatoryRatio <= 0 || cfg.MandatoryRatio > 1 {
		return errors.New("compliance.mandatoryRatio must be within (0, 1]")
	}
	if cfg.CommissionRate < 0 || cfg.CommissionRate > 1 {
		return errors.New("compliance.commissionRate must be within [0, 1]")
	}
	if cfg.EntryFee < 0 {
		return errors.New("compliance.entryFee cannot be negative")
	}
	if strings.TrimSpace(cfg.Currency) == "" {
		return errors.New("compliance.currency cannot be empty")
	}
	return nil
}
