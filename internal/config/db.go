package config

import (
	"context"
	"database/sql"
	"net"
	"sync"
	"time"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/utils"

	"github.com/go-sql-driver/mysql"
)

var (
	DB   *sql.DB
	dbMu sync.Mutex
)

// MySQLDSN builds the driver DSN from env.
func MySQLDSN(env Env) string {
	cfg := mysql.NewConfig()
	cfg.User = env.MySQLUser
	cfg.Passwd = env.MySQLPassword
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(env.MySQLHost, env.MySQLPort)
	cfg.DBName = env.MySQLDatabase
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Timeout = 5 * time.Second
	cfg.ReadTimeout = 30 * time.Second
	cfg.WriteTimeout = 30 * time.Second
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// ConnectDB initializes the shared DB connection (idempotent).
func ConnectDB(env Env) (*sql.DB, error) {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		return DB, nil
	}

	db, err := sql.Open("mysql", MySQLDSN(env))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(10 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	DB = db
	utils.Log.WithField("addr", env.MySQLHost+":"+env.MySQLPort).Info("connected to MySQL ledger database")
	return DB, nil
}

func CloseDB() {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		_ = DB.Close()
		DB = nil
	}
}
