package config

import (
	"flag"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Config{HTTPAddr: ":8080", GRPCAddr: ":9090", DBPath: "spiral.db", WatchInterval: 2 * time.Second}
	if cfg != want {
		t.Fatalf("config = %+v, want %+v", cfg, want)
	}
}

func TestLoadEnvThenFlags(t *testing.T) {
	t.Setenv("SPIRAL_HTTP_ADDR", ":7000")
	t.Setenv("SPIRAL_DB_PATH", "/tmp/a.db")
	t.Setenv("SPIRAL_SEED", "42")

	cfg, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-db", "/tmp/b.db", "-watch", "0s"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":7000" || cfg.DBPath != "/tmp/b.db" || cfg.Seed != 42 || cfg.WatchInterval != 0 {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("bad env", func(t *testing.T) {
		t.Setenv("SPIRAL_WATCH_INTERVAL", "soon")
		_, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), nil)
		if err == nil || !strings.Contains(err.Error(), "parse env:") {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("seed overflow", func(t *testing.T) {
		_, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-seed", "4294967296"})
		if err == nil {
			t.Fatal("expected error")
		}
	})
}
