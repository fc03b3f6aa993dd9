package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	intdb "github.com/Angelicablandonn/chatbot-whatsapp/internal/db"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain/models"
)

const ledgerTable = "ledger_reservations"

// MySQLLedger keeps the ledger in one table; seq preserves append order.
type MySQLLedger struct {
	DB *sql.DB
}

// EnsureSchema creates the ledger table when it is missing.
func (l MySQLLedger) EnsureSchema(ctx context.Context) error {
	if intdb.HasTable(ctx, l.DB, ledgerTable) {
		return nil
	}
	_, err := l.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+ledgerTable+` (
			seq BIGINT AUTO_INCREMENT PRIMARY KEY,
			id VARCHAR(36) NOT NULL,
			created_at DATETIME NOT NULL,
			name VARCHAR(255) NOT NULL,
			document_id VARCHAR(12) NOT NULL,
			phone VARCHAR(64) NOT NULL DEFAULT '',
			route VARCHAR(255) NOT NULL,
			departure_time VARCHAR(32) NOT NULL,
			fare BIGINT NOT NULL,
			status VARCHAR(32) NOT NULL,
			confirmed_at DATETIME NULL,
			proof_reference VARCHAR(512) NULL,
			INDEX idx_ledger_document_status (document_id, status)
		) DEFAULT CHARSET=utf8mb4`)
	return err
}

func (l MySQLLedger) Load(ctx context.Context) ([]models.Reservation, error) {
	rows, err := l.DB.QueryContext(ctx, `
		SELECT id, created_at, name, document_id, phone, route, departure_time,
		       fare, status, confirmed_at, COALESCE(proof_reference, '')
		FROM `+ledgerTable+`
		ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Reservation{}
	for rows.Next() {
		var (
			rec       models.Reservation
			status    string
			confirmed sql.NullTime
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Timestamp,
			&rec.Name,
			&rec.DocumentID,
			&rec.Phone,
			&rec.Route,
			&rec.DepartureTime,
			&rec.Fare,
			&status,
			&confirmed,
			&rec.ProofReference,
		); err != nil {
			return nil, err
		}
		if rec.Status, err = models.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("reservation %s: %w", rec.ID, err)
		}
		if confirmed.Valid {
			ts := confirmed.Time
			rec.ConfirmationTimestamp = &ts
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Save replaces the table contents inside one transaction.
func (l MySQLLedger) Save(ctx context.Context, records []models.Reservation) (err error) {
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM `+ledgerTable); err != nil {
		return err
	}
	for _, rec := range records {
		var confirmed any
		if rec.ConfirmationTimestamp != nil {
			confirmed = rec.ConfirmationTimestamp.Truncate(time.Second)
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO `+ledgerTable+`
			(id, created_at, name, document_id, phone, route, departure_time, fare, status, confirmed_at, proof_reference)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID,
			rec.Timestamp.Truncate(time.Second),
			rec.Name,
			rec.DocumentID,
			rec.Phone,
			rec.Route,
			rec.DepartureTime,
			rec.Fare,
			string(rec.Status),
			confirmed,
			intdb.NullIfEmpty(rec.ProofReference),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}
