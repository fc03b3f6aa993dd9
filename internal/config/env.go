package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/utils"

	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr   string
	GinMode   string
	LogLevel  string
	LogFormat string

	LedgerBackend string
	LedgerFile    string
	LedgerSheet   string
	ArchiveDir    string
	ProofDir      string

	MySQLHost     string
	MySQLPort     string
	MySQLUser     string
	MySQLPassword string
	MySQLDatabase string

	SessionTimeout       time.Duration
	SessionSweepInterval time.Duration
	ReportCron           string

	SMTPHost          string
	SMTPPort          int
	SMTPUser          string
	SMTPPass          string
	MailFrom          string
	MailTo            []string
	NotifyQueueSize   int
	NotifyMaxAttempts int

	GatewayURL   string
	GatewayToken string
	WebhookToken string

	JWTSecret         string
	AdminUsername     string
	AdminPasswordHash string
	CORSOrigins       []string

	CompanyName         string
	PaymentInstructions string
}

const (
	LedgerBackendXLSX  = "xlsx"
	LedgerBackendMySQL = "mysql"
)

// LoadEnv reads .env (when present) and the process environment.
func LoadEnv() (Env, error) {
	_ = godotenv.Load()

	env := Env{
		AppAddr:   getString("APP_ADDR", ":8080"),
		GinMode:   getString("GIN_MODE", ""),
		LogLevel:  getString("LOG_LEVEL", "info"),
		LogFormat: getString("LOG_FORMAT", "text"),

		LedgerBackend: strings.ToLower(getString("LEDGER_BACKEND", LedgerBackendXLSX)),
		LedgerFile:    getString("LEDGER_FILE", "ventas_diarias.xlsx"),
		LedgerSheet:   getString("LEDGER_SHEET", "Ventas"),
		ArchiveDir:    getString("ARCHIVE_DIR", "backups"),
		ProofDir:      getString("PROOF_DIR", "comprobantes_pago"),

		MySQLHost:     getString("MYSQL_HOST", "127.0.0.1"),
		MySQLPort:     getString("MYSQL_PORT", "3306"),
		MySQLUser:     getString("MYSQL_USER", "root"),
		MySQLPassword: os.Getenv("MYSQL_PASSWORD"),
		MySQLDatabase: getString("MYSQL_DATABASE", "chatbot_transporte"),

		ReportCron: getString("REPORT_CRON", "0 20 * * *"),

		SMTPHost: getString("SMTP_HOST", "smtp.gmail.com"),
		SMTPUser: getString("SMTP_USER", os.Getenv("EMAIL_USER")),
		SMTPPass: getString("SMTP_PASS", os.Getenv("EMAIL_PASS")),
		MailTo:   utils.SplitList(os.Getenv("MAIL_TO")),

		GatewayURL:   getString("GATEWAY_URL", ""),
		GatewayToken: getString("GATEWAY_TOKEN", ""),
		WebhookToken: getString("WEBHOOK_TOKEN", ""),

		JWTSecret:         getString("JWT_SECRET", ""),
		AdminUsername:     getString("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getString("ADMIN_PASSWORD_HASH", ""),
		CORSOrigins:       utils.SplitList(os.Getenv("CORS_ALLOWED_ORIGINS")),

		CompanyName:         getString("COMPANY_NAME", "Transporte Progreso del Chocó"),
		PaymentInstructions: getString("PAYMENT_INSTRUCTIONS", "Realiza el pago por Nequi o Daviplata al 300 000 0000 y envía la foto del comprobante por este chat."),
	}
	env.MailFrom = getString("MAIL_FROM", env.SMTPUser)
	if len(env.MailTo) == 0 && env.SMTPUser != "" {
		env.MailTo = []string{env.SMTPUser}
	}

	var err error
	if env.SessionTimeout, err = getDuration("SESSION_TIMEOUT", time.Hour); err != nil {
		return Env{}, err
	}
	if env.SessionSweepInterval, err = getDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return Env{}, err
	}
	if env.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return Env{}, err
	}
	if env.NotifyQueueSize, err = getInt("NOTIFY_QUEUE_SIZE", 64); err != nil {
		return Env{}, err
	}
	if env.NotifyMaxAttempts, err = getInt("NOTIFY_MAX_ATTEMPTS", 3); err != nil {
		return Env{}, err
	}

	switch env.LedgerBackend {
	case LedgerBackendXLSX, LedgerBackendMySQL:
	default:
		return Env{}, fmt.Errorf("LEDGER_BACKEND must be %q or %q, got %q", LedgerBackendXLSX, LedgerBackendMySQL, env.LedgerBackend)
	}
	return env, nil
}

// MailEnabled reports whether SMTP credentials are configured.
func (e Env) MailEnabled() bool {
	return e.SMTPHost != "" && e.SMTPUser != "" && e.SMTPPass != ""
}

func getString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer: %q", key, v)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration: %q", key, v)
	}
	return d, nil
}
