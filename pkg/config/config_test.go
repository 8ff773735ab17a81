package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  address: 127.0.0.1
  port: 9090
  db_path: /tmp/chatledger-test
security:
  cors:
    allowed_origins: ["https://example.com"]
  rate_limit:
    enabled: true
    rps: 2.5
    burst: 5
reply:
  provider: openai
  base_url: http://localhost:11434/v1
  model: test-model
  timeout: 15s
  history_window: 5
sweep:
  enabled: true
  cron: "*/10 * * * *"
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:9090" {
		t.Fatalf("Addr = %q", cfg.Addr())
	}
	if cfg.Server.DBPath != "/tmp/chatledger-test" {
		t.Fatalf("DBPath = %q", cfg.Server.DBPath)
	}
	if !cfg.Security.RateLimit.Enabled || cfg.Security.RateLimit.RPS != 2.5 {
		t.Fatalf("rate limit: %+v", cfg.Security.RateLimit)
	}
	if cfg.Reply.Provider != "openai" || cfg.Reply.Timeout.Duration() != 15*time.Second {
		t.Fatalf("reply: %+v", cfg.Reply)
	}
	if cfg.Sweep.Cron != "*/10 * * * *" {
		t.Fatalf("sweep cron = %q", cfg.Sweep.Cron)
	}
}

func TestValidateConfigDefaults(t *testing.T) {
	cfg := &Config{}
	if err := cfg.ValidateConfig(); err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
	if cfg.Reply.Provider != "canned" {
		t.Fatalf("provider default = %q", cfg.Reply.Provider)
	}
	if cfg.Reply.Timeout.Duration() != 30*time.Second {
		t.Fatalf("timeout default = %v", cfg.Reply.Timeout.Duration())
	}
	if cfg.Reply.HistoryWindow != 3 {
		t.Fatalf("history window default = %d", cfg.Reply.HistoryWindow)
	}
	if cfg.Reply.FailureText == "" {
		t.Fatalf("failure text default missing")
	}
	if cfg.Sweep.Cron == "" {
		t.Fatalf("sweep cron default missing")
	}
	if cfg.Limits.MaxTextLen <= 0 || cfg.Limits.MaxTitleLen <= 0 {
		t.Fatalf("limit defaults missing: %+v", cfg.Limits)
	}
}

func TestValidateConfigRejectsBadValues(t *testing.T) {
	cfg := &Config{}
	cfg.Reply.Provider = "quantum"
	if err := cfg.ValidateConfig(); err == nil {
		t.Fatalf("unknown provider accepted")
	}

	cfg = &Config{}
	cfg.Reply.Provider = "openai"
	if err := cfg.ValidateConfig(); err == nil {
		t.Fatalf("openai provider without base_url accepted")
	}

	cfg = &Config{}
	cfg.Sweep.Cron = "not a cron"
	if err := cfg.ValidateConfig(); err == nil {
		t.Fatalf("invalid cron accepted")
	}
}

func TestParseConfigEnvs(t *testing.T) {
	t.Setenv("CHATLEDGER_SERVER_ADDR", "0.0.0.0:7070")
	t.Setenv("CHATLEDGER_DB_PATH", "/tmp/envdb")
	t.Setenv("CHATLEDGER_REPLY_PROVIDER", "OpenAI")
	t.Setenv("CHATLEDGER_REPLY_TIMEOUT", "5s")
	t.Setenv("CHATLEDGER_CORS_ORIGINS", "https://a.test, https://b.test")
	t.Setenv("CHATLEDGER_RATE_LIMIT_ENABLED", "true")

	cfg, used := ParseConfigEnvs()
	if !used {
		t.Fatalf("envUsed = false")
	}
	if cfg.Addr() != "0.0.0.0:7070" {
		t.Fatalf("Addr = %q", cfg.Addr())
	}
	if cfg.Server.DBPath != "/tmp/envdb" {
		t.Fatalf("DBPath = %q", cfg.Server.DBPath)
	}
	if cfg.Reply.Provider != "openai" {
		t.Fatalf("provider = %q", cfg.Reply.Provider)
	}
	if cfg.Reply.Timeout.Duration() != 5*time.Second {
		t.Fatalf("timeout = %v", cfg.Reply.Timeout.Duration())
	}
	if len(cfg.Security.CORS.AllowedOrigins) != 2 || cfg.Security.CORS.AllowedOrigins[1] != "https://b.test" {
		t.Fatalf("origins = %v", cfg.Security.CORS.AllowedOrigins)
	}
	if !cfg.Security.RateLimit.Enabled {
		t.Fatalf("rate limit not enabled from env")
	}
}

func TestLoadEffectiveConfigPrecedence(t *testing.T) {
	fileCfg := &Config{}
	fileCfg.Server.Address = "10.0.0.1"
	fileCfg.Server.Port = 1111
	envCfg := &Config{}
	envCfg.Server.Address = "10.0.0.2"
	envCfg.Server.Port = 2222

	// file present, no flags: config wins
	res, err := LoadEffectiveConfig(Flags{Set: map[string]bool{}}, fileCfg, true, envCfg)
	if err != nil {
		t.Fatalf("LoadEffectiveConfig: %v", err)
	}
	if res.Source != "config" || res.Addr != "10.0.0.1:1111" {
		t.Fatalf("file precedence: %+v", res)
	}

	// no file: env wins
	res, err = LoadEffectiveConfig(Flags{Set: map[string]bool{}}, &Config{}, false, envCfg)
	if err != nil {
		t.Fatalf("LoadEffectiveConfig: %v", err)
	}
	if res.Source != "env" || res.Addr != "10.0.0.2:2222" {
		t.Fatalf("env precedence: %+v", res)
	}

	// explicit addr flag wins over both
	res, err = LoadEffectiveConfig(Flags{Addr: ":3333", DB: "./db", Set: map[string]bool{"addr": true}}, fileCfg, true, envCfg)
	if err != nil {
		t.Fatalf("LoadEffectiveConfig: %v", err)
	}
	if res.Source != "flags" || res.Addr != ":3333" {
		t.Fatalf("flags precedence: %+v", res)
	}

	// --config pointing at a missing file is an error
	if _, err := LoadEffectiveConfig(Flags{Config: "./nope.yaml", Set: map[string]bool{"config": true}}, &Config{}, false, envCfg); err == nil {
		t.Fatalf("missing --config file accepted")
	}
}
