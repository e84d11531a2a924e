package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
environment: test
server:
  port: 8080
market:
  base_url: https://quotes.example.com
  symbols: [AAPL, TSLA]
clickhouse:
  host: localhost
  port: 9000
  database: sentry
`

func writeTemp(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return p
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Engine.Interval != 60*time.Second {
		t.Errorf("interval default: got %v", c.Engine.Interval)
	}
	if c.Engine.VolumeWindow != 11 {
		t.Errorf("volume window default: got %d", c.Engine.VolumeWindow)
	}
	if c.Engine.CallTimeout != 8*time.Second {
		t.Errorf("call timeout default: got %v", c.Engine.CallTimeout)
	}
}

func TestLoadMissingSymbols(t *testing.T) {
	body := `
environment: test
market:
  base_url: https://quotes.example.com
clickhouse:
  host: localhost
`
	if _, err := Load(writeTemp(t, body)); err == nil {
		t.Fatal("expected validation error for missing symbols")
	}
}

func TestLoadStreamRequiresKafka(t *testing.T) {
	body := validYAML + `
stream:
  enabled: true
  websocket_url: wss://stream.example.com
`
	if _, err := Load(writeTemp(t, body)); err == nil {
		t.Fatal("expected validation error: stream enabled without kafka brokers")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SYMBOLS", "MSFT,GOOG,AMZN")
	t.Setenv("NEWS_API_KEY", "k123")
	c, err := LoadWithEnv(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Market.Symbols) != 3 || c.Market.Symbols[0] != "MSFT" {
		t.Errorf("symbols override: got %v", c.Market.Symbols)
	}
	if c.News.APIKey != "k123" {
		t.Errorf("news key override: got %q", c.News.APIKey)
	}
}
