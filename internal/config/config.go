package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"SignalRadar/internal/budget"
	"SignalRadar/internal/calculator"
	"SignalRadar/internal/filter"
	"SignalRadar/internal/logger"
	"SignalRadar/internal/markethours"
	"SignalRadar/internal/model"
	"SignalRadar/internal/strategy"
	"SignalRadar/internal/telemetry"
)

// DefaultRadar is the ticker universe scanned on schedule when none is configured.
var DefaultRadar = []string{
	"BUMI", "BRMS", "ENRG", "DEWA", "BHIT", "KPIG", "MNCN", "MLPL", "MPPA", "LPKR",
	"BRPT", "TPIA", "PNLF", "GOTO", "ASSA", "PANI", "ADMR", "DOID", "KIJA", "BSBK",
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken      string  `yaml:"bot_token" validate:"required"`
		AuthorizedIDs []int64 `yaml:"authorized_ids" validate:"min=1"`
		ReplayPending bool    `yaml:"replay_pending"`
		SendRetries   int     `yaml:"send_retries" default:"3" validate:"gte=0,lte=10"`
	} `yaml:"telegram"`

	DataSource struct {
		Provider      string `yaml:"provider" default:"yahoo" validate:"oneof=yahoo rest mock"`
		BaseURL       string `yaml:"base_url"`
		APIKey        string `yaml:"api_key"`
		Quotes        string `yaml:"quotes" default:"google" validate:"oneof=google rest none"`
		QuoteExchange string `yaml:"quote_exchange" default:"IDX"`
		TickerSuffix  string `yaml:"ticker_suffix" default:".JK"`
	} `yaml:"data_source"`

	Market markethours.Config `yaml:"market"`

	Schedule struct {
		Interval   time.Duration `yaml:"interval" default:"5m" validate:"gte=10s"`
		BatchSize  int           `yaml:"batch_size" default:"3" validate:"gte=1"`
		LotSize    int           `yaml:"lot_size" default:"100" validate:"gte=1"`
		Window     model.Window  `yaml:"window"`
		Radar      []string      `yaml:"radar"`
		RunOnStart bool          `yaml:"run_on_start"`
	} `yaml:"schedule"`

	Scan struct {
		Workers      int           `yaml:"workers" default:"8" validate:"gte=1,lte=64"`
		FetchTimeout time.Duration `yaml:"fetch_timeout" default:"8s" validate:"gt=0"`
		QuoteTimeout time.Duration `yaml:"quote_timeout" default:"5s" validate:"gt=0"`
		Window       model.Window  `yaml:"window"`
	} `yaml:"scan"`

	Filter     filter.Allow         `yaml:"filter"`
	Dedup      filter.TrackerConfig `yaml:"dedup"`
	Indicators calculator.Params    `yaml:"indicators"`
	Rules      strategy.Rules       `yaml:"rules"`

	Budget struct {
		InitialCapital string `yaml:"initial_capital"`
	} `yaml:"budget"`

	Database struct {
		Driver     string `yaml:"driver" default:"sqlite" validate:"oneof=sqlite memory"`
		SQLitePath string `yaml:"sqlite_path" default:"data/signalradar.db"`
	} `yaml:"database"`

	Server struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr" default:":8080"`
	} `yaml:"server"`

	Logging logger.Config    `yaml:"logging"`
	Tracing telemetry.Config `yaml:"tracing"`
	Proxy   string           `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and struct-tag defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if len(cfg.Schedule.Radar) == 0 {
		cfg.Schedule.Radar = DefaultRadar
	}

	radar, err := normalizeAll(cfg.Schedule.Radar, cfg.DataSource.TickerSuffix)
	if err != nil {
		return nil, fmt.Errorf("schedule.radar: %w", err)
	}
	cfg.Schedule.Radar = radar

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	for _, key := range []string{"AUTHORIZED_IDS", "MY_ID"} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		ids, err := parseIDs(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		for _, id := range ids {
			if !containsID(c.Telegram.AuthorizedIDs, id) {
				c.Telegram.AuthorizedIDs = append(c.Telegram.AuthorizedIDs, id)
			}
		}
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("INITIAL_CAPITAL"); v != "" {
		c.Budget.InitialCapital = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.Server.Addr = v
		c.Server.Enabled = true
	}
	if v := os.Getenv("SCAN_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SCAN_INTERVAL: %w", err)
		}
		c.Schedule.Interval = d
	}
	return nil
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func normalizeAll(raw []string, suffix string) ([]string, error) {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		t, err := model.NormalizeTicker(r, suffix)
		if err != nil {
			return nil, err
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out, nil
}

var validate = validator.New()

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.DataSource.Provider == "rest" && c.DataSource.BaseURL == "" {
		return fmt.Errorf("data_source.base_url is required for the rest provider")
	}
	if c.DataSource.Quotes == "rest" && c.DataSource.BaseURL == "" {
		return fmt.Errorf("data_source.base_url is required for rest quotes")
	}
	if c.Database.Driver == "sqlite" && c.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is required for the sqlite driver")
	}
	if _, err := markethours.NewSession(c.Market); err != nil {
		return fmt.Errorf("market: %w", err)
	}
	if c.Budget.InitialCapital != "" {
		if _, err := budget.ParseCapital(c.Budget.InitialCapital); err != nil {
			return fmt.Errorf("budget.initial_capital: %w", err)
		}
	}
	if c.Indicators.MinBars < c.Indicators.RSIPeriod+1 {
		return fmt.Errorf("indicators.min_bars must be at least rsi_period+1 (%d)", c.Indicators.RSIPeriod+1)
	}
	return nil
}
