package config

import (
	"reflect"
	"testing"
	"time"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.MongoDB.DBName != "ecosnap" {
		t.Errorf("DBName = %q, want ecosnap", cfg.MongoDB.DBName)
	}
	if cfg.RateLimit.Window != time.Hour || cfg.RateLimit.Reports != 10 {
		t.Errorf("RateLimit = %+v, want 10 per 1h", cfg.RateLimit)
	}
	if cfg.Server.IsProduction() {
		t.Errorf("default environment should not be production")
	}
}

func TestNewConfigOrigins(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.local,http://b.local")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	want := []string{"http://a.local", "http://b.local"}
	if !reflect.DeepEqual(cfg.Server.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.Server.AllowedOrigins, want)
	}
}

func TestNewConfigRequiresSecret(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "")

	if _, err := NewConfig(); err == nil {
		t.Errorf("expected error for empty JWT_SECRET")
	}
}
