package config

import (
	"strings"
	"testing"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("WANDEL_DATABASE_HOST", "db.internal")
	t.Setenv("WANDEL_SERVER_PORT", "9090")

	cfg, err := Load("wandelroutes-test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("database.host = %q, want db.internal", cfg.Database.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Telemetry.ServiceName != "wandelroutes-test" {
		t.Errorf("telemetry.service_name = %q", cfg.Telemetry.ServiceName)
	}
	if cfg.Editor.MapWidthPx != 800 || cfg.Editor.MapHeightPx != 600 {
		t.Errorf("editor map size = %dx%d", cfg.Editor.MapWidthPx, cfg.Editor.MapHeightPx)
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Port: 0},
		Auth:   AuthConfig{OperatorToken: "short"},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "database.host", "auth.operator_token", "editor.map_width_px", "temporal.task_queue"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %s:\n%v", want, err)
		}
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{User: "wandel", Password: "pw", Host: "localhost", Port: 5432, DBName: "wandelroutes", SSLMode: "disable"}
	if got, want := d.DSN(), "postgres://wandel:pw@localhost:5432/wandelroutes?sslmode=disable"; got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
