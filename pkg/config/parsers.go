package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// holds parsed command-line flag values and which were set
type Flags struct {
	Addr   string
	DB     string
	Config string
	Set    map[string]bool
}

// holds the result of LoadEffectiveConfig
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	DBPath string
	Source string // "flags", "config", or "env"
}

// parses command-line flags and returns them as a Flags struct
func ParseConfigFlags() Flags {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.database", "Pebble DB path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()

	// record which flags were set explicitly
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Set: setFlags}
}

// loads config from file, returns config, found bool, and error
func ParseConfigFile(flags Flags) (*Config, bool, error) {
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := LoadConfigFile(cfgPath)
	if err != nil {
		if os.IsNotExist(err) || strings.Contains(err.Error(), "not found") {
			return &Config{}, false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

// loads environment variables into a new Config and returns it with a
// flag telling whether any env was set; caller config is unchanged
func ParseConfigEnvs() (*Config, bool) {
	envs := map[string]string{
		"SERVER_ADDR":    os.Getenv("CHATLEDGER_SERVER_ADDR"),
		"SERVER_ADDRESS": os.Getenv("CHATLEDGER_SERVER_ADDRESS"),
		"SERVER_PORT":    os.Getenv("CHATLEDGER_SERVER_PORT"),
		"DB_PATH":        os.Getenv("CHATLEDGER_DB_PATH"),
		"TLS_CERT":       os.Getenv("CHATLEDGER_TLS_CERT"),
		"TLS_KEY":        os.Getenv("CHATLEDGER_TLS_KEY"),

		"CORS_ORIGINS":       os.Getenv("CHATLEDGER_CORS_ORIGINS"),
		"RATE_LIMIT_ENABLED": os.Getenv("CHATLEDGER_RATE_LIMIT_ENABLED"),
		"RATE_RPS":           os.Getenv("CHATLEDGER_RATE_RPS"),
		"RATE_BURST":         os.Getenv("CHATLEDGER_RATE_BURST"),

		"REPLY_PROVIDER":       os.Getenv("CHATLEDGER_REPLY_PROVIDER"),
		"REPLY_BASE_URL":       os.Getenv("CHATLEDGER_REPLY_BASE_URL"),
		"REPLY_API_KEY":        os.Getenv("CHATLEDGER_REPLY_API_KEY"),
		"REPLY_MODEL":          os.Getenv("CHATLEDGER_REPLY_MODEL"),
		"REPLY_TIMEOUT":        os.Getenv("CHATLEDGER_REPLY_TIMEOUT"),
		"REPLY_HISTORY_WINDOW": os.Getenv("CHATLEDGER_REPLY_HISTORY_WINDOW"),
		"REPLY_TOKEN_BUDGET":   os.Getenv("CHATLEDGER_REPLY_TOKEN_BUDGET"),
		"REPLY_FAILURE_TEXT":   os.Getenv("CHATLEDGER_REPLY_FAILURE_TEXT"),

		"SWEEP_ENABLED": os.Getenv("CHATLEDGER_SWEEP_ENABLED"),
		"SWEEP_CRON":    os.Getenv("CHATLEDGER_SWEEP_CRON"),

		"LOG_LEVEL":  os.Getenv("CHATLEDGER_LOG_LEVEL"),
		"LOG_FORMAT": os.Getenv("CHATLEDGER_LOG_FORMAT"),

		"MAX_TEXT_LEN":  os.Getenv("CHATLEDGER_MAX_TEXT_LEN"),
		"MAX_TITLE_LEN": os.Getenv("CHATLEDGER_MAX_TITLE_LEN"),
	}

	envUsed := false
	for _, v := range envs {
		if v != "" {
			envUsed = true
			break
		}
	}
	envCfg := &Config{}

	parseList := func(v string) []string {
		if v == "" {
			return nil
		}
		parts := []string{}
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		return parts
	}

	parseBool := func(v string) bool {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes":
			return true
		default:
			return false
		}
	}

	parseDuration := func(v string) Duration {
		if strings.TrimSpace(v) == "" {
			return Duration(0)
		}
		if td, err := time.ParseDuration(v); err == nil {
			return Duration(td)
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return Duration(time.Duration(f * float64(time.Second)))
		}
		return Duration(0)
	}

	if v := envs["SERVER_ADDR"]; v != "" {
		if h, p, err := net.SplitHostPort(v); err == nil {
			envCfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				envCfg.Server.Port = pi
			}
		} else {
			envCfg.Server.Address = v
		}
	} else {
		if host := envs["SERVER_ADDRESS"]; host != "" {
			envCfg.Server.Address = host
		}
		if port := envs["SERVER_PORT"]; port != "" {
			if pi, err := strconv.Atoi(port); err == nil {
				envCfg.Server.Port = pi
			}
		}
	}

	if v := envs["DB_PATH"]; v != "" {
		envCfg.Server.DBPath = v
	}
	if c := envs["TLS_CERT"]; c != "" {
		envCfg.Server.TLS.CertFile = c
	}
	if k := envs["TLS_KEY"]; k != "" {
		envCfg.Server.TLS.KeyFile = k
	}

	if v := envs["CORS_ORIGINS"]; v != "" {
		envCfg.Security.CORS.AllowedOrigins = parseList(v)
	}
	if v := envs["RATE_LIMIT_ENABLED"]; v != "" {
		envCfg.Security.RateLimit.Enabled = parseBool(v)
	}
	if v := envs["RATE_RPS"]; v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envCfg.Security.RateLimit.RPS = f
		}
	}
	if v := envs["RATE_BURST"]; v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envCfg.Security.RateLimit.Burst = n
		}
	}

	if v := envs["REPLY_PROVIDER"]; v != "" {
		envCfg.Reply.Provider = strings.ToLower(strings.TrimSpace(v))
	}
	if v := envs["REPLY_BASE_URL"]; v != "" {
		envCfg.Reply.BaseURL = v
	}
	if v := envs["REPLY_API_KEY"]; v != "" {
		envCfg.Reply.APIKey = v
	}
	if v := envs["REPLY_MODEL"]; v != "" {
		envCfg.Reply.Model = v
	}
	if v := envs["REPLY_TIMEOUT"]; v != "" {
		envCfg.Reply.Timeout = parseDuration(v)
	}
	if v := envs["REPLY_HISTORY_WINDOW"]; v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envCfg.Reply.HistoryWindow = n
		}
	}
	if v := envs["REPLY_TOKEN_BUDGET"]; v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envCfg.Reply.TokenBudget = n
		}
	}
	if v := envs["REPLY_FAILURE_TEXT"]; v != "" {
		envCfg.Reply.FailureText = v
	}

	if v := envs["SWEEP_ENABLED"]; v != "" {
		envCfg.Sweep.Enabled = parseBool(v)
	}
	if v := envs["SWEEP_CRON"]; v != "" {
		envCfg.Sweep.Cron = v
	}

	if v := envs["LOG_LEVEL"]; v != "" {
		envCfg.Logging.Level = strings.TrimSpace(v)
	}
	if v := envs["LOG_FORMAT"]; v != "" {
		envCfg.Logging.Format = strings.ToLower(strings.TrimSpace(v))
	}

	if v := envs["MAX_TEXT_LEN"]; v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envCfg.Limits.MaxTextLen = n
		}
	}
	if v := envs["MAX_TITLE_LEN"]; v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envCfg.Limits.MaxTitleLen = n
		}
	}

	return envCfg, envUsed
}

// decides which single source to use (flags, config file, or env) and
// returns the effective config plus resolved addr and dbPath. if --config
// is set, only the config file is used; otherwise flags if set; else
// config file if present; else env
func LoadEffectiveConfig(flags Flags, fileCfg *Config, fileExists bool, envCfg *Config) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult

	if flags.Set["config"] {
		if !fileExists {
			return res, fmt.Errorf("config file %s not found", flags.Config)
		}
		res.Config = fileCfg
		res.Addr = fileCfg.Addr()
		res.DBPath = fileCfg.Server.DBPath
		res.Source = "config"
		return res, nil
	}

	if flags.Set["addr"] || flags.Set["db"] {
		addr := flags.Addr
		if !flags.Set["addr"] {
			addr = envCfg.Addr()
		}
		dbPath := flags.DB
		if !flags.Set["db"] {
			if p := strings.TrimSpace(envCfg.Server.DBPath); p != "" {
				dbPath = p
			} else if p := strings.TrimSpace(fileCfg.Server.DBPath); p != "" {
				dbPath = p
			}
		}
		// flags pin the listen address and DB path; everything else
		// still comes from env so reply and sweep tuning survive
		out := *envCfg
		out.Server.Address = addr
		out.Server.Port = parsePortFromAddr(addr)
		out.Server.DBPath = dbPath
		res.Config = &out
		res.Addr = addr
		res.DBPath = dbPath
		res.Source = "flags"
		return res, nil
	}

	if fileExists {
		res.Config = fileCfg
		res.Addr = fileCfg.Addr()
		res.DBPath = fileCfg.Server.DBPath
		res.Source = "config"
		return res, nil
	}
	res.Config = envCfg
	res.Addr = envCfg.Addr()
	res.DBPath = envCfg.Server.DBPath
	res.Source = "env"
	return res, nil
}

// extracts port integer from host:port string
func parsePortFromAddr(a string) int {
	if a == "" {
		return 0
	}
	if _, p, err := net.SplitHostPort(a); err == nil {
		if pi, err := strconv.Atoi(p); err == nil {
			return pi
		}
	}
	return 0
}
