package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "github.com/Angelicablandonn/chatbot-whatsapp/internal/config"
	router "github.com/Angelicablandonn/chatbot-whatsapp/internal/http"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/http/handlers"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/repositories"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/services"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/transport"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	env, err := intconfig.LoadEnv()
	if err != nil {
		utils.Log.Fatalf("configuración inválida: %v", err)
	}
	utils.InitLogger(env.LogLevel, env.LogFormat)
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	ledger, ledgerPath := openLedger(env)
	defer intconfig.CloseDB()

	catalog, err := repositories.NewRouteCatalog(repositories.DefaultRoutes())
	if err != nil {
		utils.Log.Fatalf("catálogo de rutas inválido: %v", err)
	}

	var mailer services.Mailer = services.LogMailer{}
	if env.MailEnabled() {
		mailer = services.SMTPMailer{
			Host: env.SMTPHost,
			Port: env.SMTPPort,
			User: env.SMTPUser,
			Pass: env.SMTPPass,
			From: env.MailFrom,
		}
	} else {
		utils.Log.Warn("SMTP no configurado: los correos solo se registran en el log")
	}
	dispatcher := services.NewDispatcher(mailer, env.MailTo, env.NotifyQueueSize, env.NotifyMaxAttempts)
	dispatcher.LedgerPath = ledgerPath

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)

	sessions := services.SessionRegistry{Store: repositories.NewMemorySessionStore()}
	go services.RunSweeper(workerCtx, sessions, env.SessionSweepInterval, env.SessionTimeout)

	conversation := &services.ConversationService{
		Catalog:  catalog,
		Ledger:   ledger,
		Sessions: sessions,
		Proofs:   repositories.ProofStorage{Dir: env.ProofDir},
		Notifier: dispatcher,
		Replies: services.Replies{
			CompanyName:         env.CompanyName,
			PaymentInstructions: env.PaymentInstructions,
		},
	}
	reports := &services.ReportService{
		Ledger:     ledger,
		ArchiveDir: env.ArchiveDir,
		Sheet:      env.LedgerSheet,
		Notifier:   dispatcher,
	}

	scheduler, err := services.NewScheduler(env.ReportCron, reports)
	if err != nil {
		utils.Log.Fatalf("REPORT_CRON inválido: %v", err)
	}
	scheduler.Start()

	gateway := transport.NewGateway(env.GatewayURL, env.GatewayToken)
	if !gateway.Enabled() {
		utils.Log.Warn("GATEWAY_URL vacío: las respuestas solo se devuelven en el webhook")
	}

	r := router.NewRouter(env, &handlers.Handlers{
		Conversation: conversation,
		Sender:       gateway,
		Ledger:       ledger,
		Catalog:      catalog,
		Reports:      reports,
		Sessions:     sessions,
		Auth: handlers.AuthConfig{
			Username:     env.AdminUsername,
			PasswordHash: env.AdminPasswordHash,
			Secret:       []byte(env.JWTSecret),
		},
	})

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		utils.Log.Infof("Servidor escuchando en %s (ledger=%s)", env.AppAddr, env.LedgerBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Log.Fatalf("No se pudo iniciar el servidor: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	utils.Log.Info("Apagando servidor...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		utils.Log.Errorf("Cierre del servidor falló: %v", err)
	}
	scheduler.Stop()
	dispatcher.Close()
	stopWorkers()

	utils.Log.Info("Servidor detenido.")
}

// openLedger picks the ledger backend. The returned path is the xlsx file
// attached to confirmation mails; it is empty for the MySQL backend.
func openLedger(env intconfig.Env) (*repositories.LedgerRepository, string) {
	if env.LedgerBackend == intconfig.LedgerBackendMySQL {
		db, err := intconfig.ConnectDB(env)
		if err != nil {
			utils.Log.Fatalf("No se pudo conectar a MySQL: %v", err)
		}
		backend := repositories.MySQLLedger{DB: db}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := backend.EnsureSchema(ctx); err != nil {
			utils.Log.Fatalf("No se pudo preparar la tabla del ledger: %v", err)
		}
		return repositories.NewLedgerRepository(backend), ""
	}
	backend := repositories.XLSXLedger{Path: env.LedgerFile, Sheet: env.LedgerSheet}
	return repositories.NewLedgerRepository(backend), env.LedgerFile
}
