// Package config loads and validates the bot configuration. Files may
// be YAML or JSON; YAML is tried first. A malformed or incomplete
// configuration is a startup failure, never a runtime one.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/antigravity/trader/market"
)

// Symbol holds the per-instrument trading parameters. Distances are in
// price points (instrument point size units); ratios are fractions of
// account balance.
type Symbol struct {
	Lot        float64 `json:"lot" yaml:"lot"`
	StopPoints float64 `json:"stop_points" yaml:"stop_points"`
	TakePoints float64 `json:"take_points" yaml:"take_points"`

	MaxPositions int     `json:"max_positions" yaml:"max_positions"`
	MinDistance  float64 `json:"min_distance" yaml:"min_distance"` // points between same-direction entries
	ATRCeiling   float64 `json:"atr_ceiling" yaml:"atr_ceiling"`   // skip entries above this ATR

	CooldownMinutes int `json:"cooldown_minutes" yaml:"cooldown_minutes"`

	RSITrendBuy  float64 `json:"rsi_trend_buy" yaml:"rsi_trend_buy"`
	RSITrendSell float64 `json:"rsi_trend_sell" yaml:"rsi_trend_sell"`
	RSIRangeBuy  float64 `json:"rsi_range_buy" yaml:"rsi_range_buy"`
	RSIRangeSell float64 `json:"rsi_range_sell" yaml:"rsi_range_sell"`

	// AveragingRSIOffset tightens the RSI threshold by offset * count of
	// already-open same-direction positions.
	AveragingRSIOffset   float64 `json:"averaging_rsi_offset" yaml:"averaging_rsi_offset"`
	AveragingIntervalSec int     `json:"averaging_interval_sec" yaml:"averaging_interval_sec"`

	RangeATRMax float64 `json:"range_atr_max" yaml:"range_atr_max"`

	TrendFilter bool `json:"trend_filter" yaml:"trend_filter"`
	// Emergency RSI extremes bypass the trend filter. Zero disables the
	// bypass for that side.
	EmergencyRSIBuy  float64 `json:"emergency_rsi_buy" yaml:"emergency_rsi_buy"`
	EmergencyRSISell float64 `json:"emergency_rsi_sell" yaml:"emergency_rsi_sell"`
}

// Cooldown returns the loss-streak cooldown as a duration.
func (s Symbol) Cooldown() time.Duration {
	return time.Duration(s.CooldownMinutes) * time.Minute
}

// AveragingInterval returns the minimum delay between consecutive
// same-direction entries.
func (s Symbol) AveragingInterval() time.Duration {
	return time.Duration(s.AveragingIntervalSec) * time.Second
}

// Window is a daily time-of-day interval during which entries are
// suppressed (news blackout). Times are "HH:MM"; a window may cross
// midnight (start later than end).
type Window struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// Portfolio holds the account-wide exit rules, all expressed as
// fractions of account balance.
type Portfolio struct {
	BreakEvenTrigger float64 `json:"break_even_trigger" yaml:"break_even_trigger"`
	BreakEvenOffset  float64 `json:"break_even_offset" yaml:"break_even_offset"`
	BasketTakeProfit float64 `json:"basket_take_profit" yaml:"basket_take_profit"`
	TrailTrigger     float64 `json:"trail_trigger" yaml:"trail_trigger"`
	TrailStop        float64 `json:"trail_stop" yaml:"trail_stop"`
	DailyLossCap     float64 `json:"daily_loss_cap" yaml:"daily_loss_cap"`
}

// Config is the complete bot configuration.
type Config struct {
	Symbols map[string]Symbol `json:"symbols" yaml:"symbols"`

	WaitSeconds int    `json:"wait_seconds" yaml:"wait_seconds"` // min interval between entries per symbol
	PollSeconds int    `json:"poll_seconds" yaml:"poll_seconds"` // control loop cadence
	MagicTag    string `json:"magic_tag" yaml:"magic_tag"`       // order comment prefix

	Portfolio Portfolio `json:"portfolio" yaml:"portfolio"`

	// EquityFloor is the kill switch: when live equity drops below it the
	// bot stops entering and terminates. Absolute account currency.
	EquityFloor float64 `json:"equity_floor" yaml:"equity_floor"`

	Blackouts []Window `json:"blackouts,omitempty" yaml:"blackouts,omitempty"`

	WebhookURL  string `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty"`
	HistoryFile string `json:"history_file" yaml:"history_file"`
	JournalDB   string `json:"journal_db,omitempty" yaml:"journal_db,omitempty"`
	LogFile     string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
}

// EntryWait returns the minimum interval between entries for a symbol.
func (c *Config) EntryWait() time.Duration {
	return time.Duration(c.WaitSeconds) * time.Second
}

// PollInterval returns the control loop cadence.
func (c *Config) PollInterval() time.Duration {
	if c.PollSeconds <= 0 {
		return time.Second
	}
	return time.Duration(c.PollSeconds) * time.Second
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration, choosing the format from the
// file extension (.yaml/.yml for YAML, otherwise indented JSON).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration and fails fast on any problem.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	for name, s := range c.Symbols {
		meta := market.Meta(name)
		if s.Lot < meta.MinLot {
			return fmt.Errorf("%s: lot %.3f below minimum %.3f", name, s.Lot, meta.MinLot)
		}
		if s.StopPoints <= 0 {
			return fmt.Errorf("%s: stop_points must be positive", name)
		}
		if s.TakePoints <= 0 {
			return fmt.Errorf("%s: take_points must be positive", name)
		}
		if s.MaxPositions <= 0 {
			return fmt.Errorf("%s: max_positions must be positive", name)
		}
		if s.RSITrendBuy <= 0 || s.RSITrendBuy >= 100 ||
			s.RSITrendSell <= 0 || s.RSITrendSell >= 100 {
			return fmt.Errorf("%s: trend RSI thresholds must be within (0,100)", name)
		}
		if s.RSIRangeBuy <= 0 || s.RSIRangeBuy >= 100 ||
			s.RSIRangeSell <= 0 || s.RSIRangeSell >= 100 {
			return fmt.Errorf("%s: range RSI thresholds must be within (0,100)", name)
		}
		if s.RSITrendBuy >= s.RSITrendSell {
			return fmt.Errorf("%s: rsi_trend_buy must be below rsi_trend_sell", name)
		}
		if s.AveragingRSIOffset < 0 {
			return fmt.Errorf("%s: averaging_rsi_offset must not be negative", name)
		}
		if s.CooldownMinutes < 0 {
			return fmt.Errorf("%s: cooldown_minutes must not be negative", name)
		}
	}
	if c.WaitSeconds < 0 {
		return fmt.Errorf("wait_seconds must not be negative")
	}
	p := c.Portfolio
	for _, r := range []struct {
		name string
		v    float64
	}{
		{"break_even_trigger", p.BreakEvenTrigger},
		{"break_even_offset", p.BreakEvenOffset},
		{"basket_take_profit", p.BasketTakeProfit},
		{"trail_trigger", p.TrailTrigger},
		{"trail_stop", p.TrailStop},
		{"daily_loss_cap", p.DailyLossCap},
	} {
		if r.v < 0 || r.v >= 1 {
			return fmt.Errorf("portfolio.%s must be within [0,1)", r.name)
		}
	}
	for i, w := range c.Blackouts {
		if _, _, err := w.Bounds(); err != nil {
			return fmt.Errorf("blackouts[%d]: %w", i, err)
		}
	}
	if c.HistoryFile == "" {
		return fmt.Errorf("history_file is required")
	}
	return nil
}

// Default returns the gold-tuned baseline configuration.
func Default() *Config {
	return &Config{
		Symbols: map[string]Symbol{
			"XAUUSD": {
				Lot:                  0.02,
				StopPoints:           600,
				TakePoints:           600,
				MaxPositions:         3,
				MinDistance:          200,
				ATRCeiling:           5.0,
				CooldownMinutes:      45,
				RSITrendBuy:          40,
				RSITrendSell:         60,
				RSIRangeBuy:          37,
				RSIRangeSell:         63,
				AveragingRSIOffset:   5,
				AveragingIntervalSec: 300,
				RangeATRMax:          2.0,
				TrendFilter:          true,
				EmergencyRSIBuy:      30,
				EmergencyRSISell:     70,
			},
		},
		WaitSeconds: 300,
		PollSeconds: 1,
		MagicTag:    "AG",
		Portfolio: Portfolio{
			BreakEvenTrigger: 0.013,
			BreakEvenOffset:  0.001,
			BasketTakeProfit: 0.025,
			TrailTrigger:     0.018,
			TrailStop:        0.005,
			DailyLossCap:     0.05,
		},
		EquityFloor: 90000,
		HistoryFile: "./trade_history.json",
		JournalDB:   "./journal.sqlite",
		LogFile:     "./antigravity.log",
	}
}
