package runtime

import (
	"net/url"
	"testing"

	"github.com/mohammad-safakhou/worstcrm/config"
)

func TestBuildPostgresDSN(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Postgres = config.PostgresConfig{Host: "db", User: "crm", Password: "pw", DBName: "worstcrm"}
	dsn, err := BuildPostgresDSN(cfg)
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	if dsn != "postgres://crm:pw@db:5432/worstcrm?sslmode=disable" {
		t.Fatalf("unexpected dsn %s", dsn)
	}

	cfg.Storage.Postgres.URL = "postgres://override"
	if dsn, _ := BuildPostgresDSN(cfg); dsn != "postgres://override" {
		t.Fatalf("url should win, got %s", dsn)
	}

	if _, err := BuildPostgresDSN(&config.Config{}); err == nil {
		t.Fatalf("expected error for empty config")
	}
}

func TestBuildPostgresDSNEscapesCredentials(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Postgres = config.PostgresConfig{Host: "db.internal", User: "crm", Password: "p@ss/w#rd", DBName: "crm"}
	dsn, err := BuildPostgresDSN(cfg)
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("parse %s: %v", dsn, err)
	}
	pw, _ := u.User.Password()
	if u.Hostname() != "db.internal" || u.Port() != "5432" || u.User.Username() != "crm" || pw != "p@ss/w#rd" {
		t.Fatalf("dsn %s parsed to host=%s port=%s user=%s password=%s", dsn, u.Hostname(), u.Port(), u.User.Username(), pw)
	}
	if u.Path != "/crm" || u.Query().Get("sslmode") != "disable" {
		t.Fatalf("dsn %s lost db or sslmode", dsn)
	}
}
