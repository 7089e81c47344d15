package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("CONFIG_FILE", "")
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MQTT.Broker != "tcp://public.mqtthq.com:1883" || cfg.MQTT.Topic != "stat/medidorenergia/realtimepower" {
		t.Fatalf("unexpected mqtt defaults %+v", cfg.MQTT)
	}
	if cfg.MQTT.QoS != 0 || !cfg.MQTT.ConnectRetry || cfg.MQTT.ClientIDPrefix != "powerlog" {
		t.Fatalf("unexpected mqtt defaults %+v", cfg.MQTT)
	}
	if cfg.CSV.Path != "mqtt_data.csv" || cfg.CSV.CRLF {
		t.Fatalf("unexpected csv defaults %+v", cfg.CSV)
	}
	if cfg.HTTPEnabled() {
		t.Fatalf("status api must be off by default")
	}
	if cfg.RedisTTL() != 24*time.Hour {
		t.Fatalf("ttl = %s", cfg.RedisTTL())
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := isolate(t)
	doc := strings.Join([]string{
		"mqtt:",
		"  broker: tcp://localhost:1883",
		"  topic: meters/one",
		"  qos: 1",
		"csv:",
		"  path: out/readings.csv",
		"http:",
		"  port: \"8090\"",
	}, "\n")
	path := filepath.Join(dir, "collector.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("POWERLOG_MQTT_QOS", "2")
	t.Setenv("POWERLOG_CSV_CRLF", "true")
	t.Setenv("POWERLOG_REDIS_TTL", "60")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MQTT.Broker != "tcp://localhost:1883" || cfg.MQTT.Topic != "meters/one" {
		t.Fatalf("yaml not applied: %+v", cfg.MQTT)
	}
	if cfg.MQTT.QoS != 2 || !cfg.CSV.CRLF {
		t.Fatalf("env not applied: %+v %+v", cfg.MQTT, cfg.CSV)
	}
	if cfg.MQTT.ClientIDPrefix != "powerlog" {
		t.Fatalf("default lost when file is partial: %q", cfg.MQTT.ClientIDPrefix)
	}
	if cfg.HTTPAddress() != ":8090" || !cfg.HTTPEnabled() {
		t.Fatalf("address = %q", cfg.HTTPAddress())
	}
	if cfg.RedisTTL() != time.Minute {
		t.Fatalf("ttl = %s", cfg.RedisTTL())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty broker", func(c *Config) { c.MQTT.Broker = " " }},
		{"empty topic", func(c *Config) { c.MQTT.Topic = "" }},
		{"qos too high", func(c *Config) { c.MQTT.QoS = 3 }},
		{"negative qos", func(c *Config) { c.MQTT.QoS = -1 }},
		{"empty csv path", func(c *Config) { c.CSV.Path = "" }},
		{"negative ttl", func(c *Config) { c.Redis.TTLSeconds = -5 }},
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	for _, tt := range tests {
		cfg := Default()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tt.name)
		}
	}
}

func TestHTTPAddress(t *testing.T) {
	cfg := Default()
	cfg.HTTP.Port = ":9000"
	if got := cfg.HTTPAddress(); got != ":9000" {
		t.Fatalf("address = %q", got)
	}
}
