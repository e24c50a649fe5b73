package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tally/internal/config"
	applog "tally/internal/log"
)

func TestSetupLoggerHonoursConfig(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&config.Config{LogLevel: "warn", LogFormat: "json"}, applog.ComponentWorker, &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line logged at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"component":"worker"`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("AUTH_DISABLED", "true")
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}

	wantErr := errors.New("nope")
	if _, err := LoadConfig(func(*config.Config) error { return wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("custom validator error = %v, want %v", err, wantErr)
	}
}

func TestLoadConfigRejectsMissingSecret(t *testing.T) {
	t.Setenv("AUTH_DISABLED", "false")
	t.Setenv("AUTH_JWT_SECRET", "")

	if _, err := LoadConfig(nil); err == nil {
		t.Fatal("expected validation error without AUTH_JWT_SECRET")
	}
}

func TestSignalContextStop(t *testing.T) {
	logger := applog.New(applog.Config{Output: &bytes.Buffer{}})
	ctx, stop := SignalContext(context.Background(), logger)
	stop()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled by stop")
	}
}
