package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// AgricultureSettings is the company-wide configuration used by document posting and reports.
type AgricultureSettings struct {
	// CompanyName heads printed documents and reports.
	CompanyName          string               `mapstructure:"companyName"`
	// DefaultTax is the tax template code applied to commissions. Empty falls back
	// to the template flagged as default.
	DefaultTax           string               `mapstructure:"defaultTax"`
	CommissionItem       string               `mapstructure:"commissionItem"`
	DefaultCustomerGroup string               `mapstructure:"defaultCustomerGroup"`
	Accounts             AccountSettings      `mapstructure:"accounts"`
	TrialBalance         TrialBalanceSettings `mapstructure:"trialBalance"`
}

// AccountSettings names the chart-of-account codes used by automatic postings.
type AccountSettings struct {
	Receivable       string `mapstructure:"receivable"`
	Payable          string `mapstructure:"payable"`
	Cash             string `mapstructure:"cash"`
	CommissionIncome string `mapstructure:"commissionIncome"`
	Sales            string `mapstructure:"sales"`
	TaxPayable       string `mapstructure:"taxPayable"`
	OpeningEquity    string `mapstructure:"openingEquity"`
}

// TrialBalanceSettings lays out the trial balance report.
type TrialBalanceSettings struct {
	Sections []TrialBalanceSection `mapstructure:"sections"`
}

// TrialBalanceSection groups rows under one heading (cash, customers, suppliers...).
type TrialBalanceSection struct {
	Name string            `mapstructure:"name"`
	Rows []TrialBalanceRow `mapstructure:"rows"`
}

// TrialBalanceRow is either a parent title or an account row rolling up into Parent.
type TrialBalanceRow struct {
	Title    string `mapstructure:"title"`
	IsParent bool   `mapstructure:"isParent"`
	Account  string `mapstructure:"account"`
	Parent   string `mapstructure:"parent"`
}

// SettingsProvider exposes the current agriculture settings.
type SettingsProvider interface {
	Get() AgricultureSettings
}

// DefaultSettings returns the settings used when no settings file is present.
func DefaultSettings() AgricultureSettings {
	return AgricultureSettings{
		CompanyName:          "Agricultural Market",
		DefaultTax:           "",
		CommissionItem:       "COMMISSION",
		DefaultCustomerGroup: "Farmers",
		Accounts: AccountSettings{
			Receivable:       "debtors",
			Payable:          "creditors",
			Cash:             "cash",
			CommissionIncome: "commission_income",
			Sales:            "sales",
			TaxPayable:       "tax_payable",
			OpeningEquity:    "opening_balance_equity",
		},
		TrialBalance: TrialBalanceSettings{
			Sections: []TrialBalanceSection{
				{Name: "cash", Rows: []TrialBalanceRow{{Title: "Cash", Account: "cash"}}},
				{Name: "customers", Rows: []TrialBalanceRow{{Title: "Customers", Account: "debtors"}}},
				{Name: "suppliers", Rows: []TrialBalanceRow{{Title: "Suppliers", Account: "creditors"}}},
				{Name: "share_capital", Rows: []TrialBalanceRow{{Title: "Opening Balance Equity", Account: "opening_balance_equity"}}},
				{Name: "taxes", Rows: []TrialBalanceRow{{Title: "Taxes", Account: "tax_payable"}}},
				{Name: "income", Rows: []TrialBalanceRow{
					{Title: "Income", IsParent: true},
					{Title: "Commissions", Account: "commission_income", Parent: "Income"},
					{Title: "Sales", Account: "sales", Parent: "Income"},
				}},
				{Name: "expense", Rows: []TrialBalanceRow{}},
			},
		},
	}
}

// StaticSettings is a fixed SettingsProvider.
type StaticSettings AgricultureSettings

// Get returns the fixed settings.
func (s StaticSettings) Get() AgricultureSettings { return AgricultureSettings(s) }

// SettingsHolder keeps the latest valid settings loaded from agriculture.yml.
type SettingsHolder struct {
	current atomic.Value // holds AgricultureSettings
}

// NewSettingsHolder reads agriculture.yml from the given directories and watches it for changes.
func NewSettingsHolder(log *zap.Logger, paths ...string) (*SettingsHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	v := viper.New()

	v.SetConfigName("agriculture")
	v.SetConfigType("yml")
	for _, p := range paths {
		if strings.TrimSpace(p) != "" {
			v.AddConfigPath(p)
		}
	}
	v.AddConfigPath("/etc/agrimarket")

	v.SetEnvPrefix("AGRIMARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &SettingsHolder{}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		log.Info("agriculture settings file not found, using defaults")
		holder.current.Store(DefaultSettings())
		return holder, nil
	}

	cfg, err := decodeSettings(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeSettings(v)
		if err != nil {
			log.Warn("agriculture settings reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("agriculture settings reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// Get returns the current settings.
func (h *SettingsHolder) Get() AgricultureSettings {
	return h.current.Load().(AgricultureSettings)
}

func decodeSettings(v *viper.Viper) (AgricultureSettings, error) {
	var cfg AgricultureSettings
	if err := v.UnmarshalKey("agriculture", &cfg); err != nil {
		return AgricultureSettings{}, err
	}
	cfg = withDefaults(cfg)
	if err := validateSettings(cfg); err != nil {
		return AgricultureSettings{}, err
	}
	return cfg, nil
}

func withDefaults(cfg AgricultureSettings) AgricultureSettings {
	def := DefaultSettings()
	if strings.TrimSpace(cfg.CompanyName) == "" {
		cfg.CompanyName = def.CompanyName
	}
	if strings.TrimSpace(cfg.CommissionItem) == "" {
		cfg.CommissionItem = def.CommissionItem
	}
	if strings.TrimSpace(cfg.DefaultCustomerGroup) == "" {
		cfg.DefaultCustomerGroup = def.DefaultCustomerGroup
	}
	accounts := &cfg.Accounts
	fill := func(dst *string, value string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = value
		}
	}
	fill(&accounts.Receivable, def.Accounts.Receivable)
	fill(&accounts.Payable, def.Accounts.Payable)
	fill(&accounts.Cash, def.Accounts.Cash)
	fill(&accounts.CommissionIncome, def.Accounts.CommissionIncome)
	fill(&accounts.Sales, def.Accounts.Sales)
	fill(&accounts.TaxPayable, def.Accounts.TaxPayable)
	fill(&accounts.OpeningEquity, def.Accounts.OpeningEquity)
	if len(cfg.TrialBalance.Sections) == 0 {
		cfg.TrialBalance = def.TrialBalance
	}
	return cfg
}

func validateSettings(cfg AgricultureSettings) error {
	for _, section := range cfg.TrialBalance.Sections {
		parents := map[string]bool{}
		for _, row := range section.Rows {
			if strings.TrimSpace(row.Title) == "" {
				return errors.New("agriculture.trialBalance rows require a title")
			}
			if row.IsParent {
				parents[row.Title] = true
				continue
			}
			if strings.TrimSpace(row.Account) == "" {
				return errors.New("agriculture.trialBalance account rows require an account")
			}
			if row.Parent != "" && !parents[row.Parent] {
				return errors.New("agriculture.trialBalance parent " + row.Parent + " must be declared before its children")
			}
		}
	}
	return nil
}

func provideSettings(cfg Config, log *zap.Logger) (SettingsProvider, error) {
	return NewSettingsHolder(log.Named("settings"), cfg.SettingsPath)
}
