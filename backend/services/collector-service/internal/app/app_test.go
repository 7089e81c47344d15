package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"powerlog/backend/services/collector-service/internal/config"
)

func TestNewCreatesCSVWithHeader(t *testing.T) {
	cfg := config.Default()
	cfg.CSV.Path = filepath.Join(t.TempDir(), "data", "mqtt_data.csv")
	cfg.MQTT.Broker = "tcp://127.0.0.1:1"

	a, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer a.Close()

	if a.server != nil || a.feed != nil {
		t.Fatalf("status api must be off without http.port")
	}
	info, err := os.Stat(cfg.CSV.Path)
	if err != nil {
		t.Fatalf("csv not created: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("header not written")
	}
}

func TestNewBuildsStatusAPI(t *testing.T) {
	cfg := config.Default()
	cfg.CSV.Path = filepath.Join(t.TempDir(), "mqtt_data.csv")
	cfg.HTTP.Port = "0"
	cfg.HTTP.JWTSecret = "secret"

	a, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer a.Close()
	if a.server == nil || a.feed == nil {
		t.Fatalf("status api not built")
	}
}

func TestNewFailsOnUnreachableRedis(t *testing.T) {
	cfg := config.Default()
	cfg.CSV.Path = filepath.Join(t.TempDir(), "mqtt_data.csv")
	cfg.Redis.Addr = "127.0.0.1:1"

	if _, err := New(cfg, zap.NewNop()); err == nil {
		t.Fatalf("expected error for unreachable redis")
	}
}

func TestRunReturnsConnectError(t *testing.T) {
	cfg := config.Default()
	cfg.CSV.Path = filepath.Join(t.TempDir(), "mqtt_data.csv")
	cfg.MQTT.Broker = "tcp://127.0.0.1:1"
	cfg.MQTT.ConnectRetry = false

	a, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = a.Run(ctx)
	if err == nil || errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected connect error, got %v", err)
	}
}
