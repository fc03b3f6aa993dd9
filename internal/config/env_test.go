package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("LEDGER_BACKEND", "")
	t.Setenv("SESSION_TIMEOUT", "")
	t.Setenv("SESSION_SWEEP_INTERVAL", "")
	t.Setenv("REPORT_CRON", "")

	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv error: %v", err)
	}
	if env.LedgerBackend != LedgerBackendXLSX || env.LedgerSheet != "Ventas" {
		t.Fatalf("unexpected ledger defaults: %+v", env)
	}
	if env.SessionTimeout != time.Hour || env.SessionSweepInterval != 5*time.Minute {
		t.Fatalf("unexpected session defaults: %v / %v", env.SessionTimeout, env.SessionSweepInterval)
	}
	if env.ReportCron != "0 20 * * *" {
		t.Fatalf("unexpected cron default %q", env.ReportCron)
	}
}

func TestLoadEnvRejectsBadValues(t *testing.T) {
	t.Setenv("SESSION_TIMEOUT", "soon")
	if _, err := LoadEnv(); err == nil || !strings.Contains(err.Error(), "SESSION_TIMEOUT") {
		t.Fatalf("expected SESSION_TIMEOUT error, got %v", err)
	}
	t.Setenv("SESSION_TIMEOUT", "")
	t.Setenv("LEDGER_BACKEND", "mongo")
	if _, err := LoadEnv(); err == nil {
		t.Fatalf("expected LEDGER_BACKEND error")
	}
}

func TestLoadEnvMailRecipients(t *testing.T) {
	t.Setenv("MAIL_TO", "ops@example.com, owner@example.com,")
	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv error: %v", err)
	}
	if len(env.MailTo) != 2 || env.MailTo[1] != "owner@example.com" {
		t.Fatalf("unexpected MailTo %v", env.MailTo)
	}
}

func TestLoadEnvListSeparators(t *testing.T) {
	t.Setenv("MAIL_TO", "ops@example.com; owner@example.com")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com;")
	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv error: %v", err)
	}
	if len(env.MailTo) != 2 || env.MailTo[0] != "ops@example.com" {
		t.Fatalf("unexpected MailTo %v", env.MailTo)
	}
	if len(env.CORSOrigins) != 2 || env.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected CORSOrigins %v", env.CORSOrigins)
	}
}

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN(Env{MySQLUser: "bot", MySQLPassword: "pw", MySQLHost: "db", MySQLPort: "3306", MySQLDatabase: "ledger"})
	if !strings.HasPrefix(dsn, "bot:pw@tcp(db:3306)/ledger?") {
		t.Fatalf("unexpected dsn %q", dsn)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Fatalf("dsn must enable parseTime: %q", dsn)
	}
}
