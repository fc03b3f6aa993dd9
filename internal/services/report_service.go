package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain/models"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/repositories"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/utils"
)

// Summary is the aggregate of one ledger snapshot.
type Summary struct {
	Date           time.Time `json:"date"`
	Total          int       `json:"total"`
	Confirmed      int       `json:"confirmed"`
	Pending        int       `json:"pending"`
	TotalValue     int64     `json:"total_value"`
	ConfirmedValue int64     `json:"confirmed_value"`
}

// Summarize counts rows by status and adds up the snapshotted fares.
func Summarize(records []models.Reservation, day time.Time) Summary {
	sum := Summary{Date: day, Total: len(records)}
	for _, r := range records {
		sum.TotalValue += r.Fare
		switch r.Status {
		case models.StatusPaymentConfirmed:
			sum.Confirmed++
			sum.ConfirmedValue += r.Fare
		case models.StatusPendingPayment:
			sum.Pending++
		}
	}
	return sum
}

// SummaryNotifier delivers the daily summary; it reports whether the mail
// was accepted for delivery.
type SummaryNotifier interface {
	SendDailySummary(sum Summary, archivePath string, records []models.Reservation) bool
}

// ReportResult describes one run of the daily report job.
type ReportResult struct {
	Summary     Summary `json:"summary"`
	ArchivePath string  `json:"archive_path,omitempty"`
	Queued      bool    `json:"email_queued"`
	Cleared     bool    `json:"cleared"`
}

// ReportService is the daily report job: summarize, archive, mail, clear.
type ReportService struct {
	Ledger     *repositories.LedgerRepository
	ArchiveDir string
	Sheet      string
	Notifier   SummaryNotifier
	Now        func() time.Time
}

func (s *ReportService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Preview summarizes the current ledger without changing it.
func (s *ReportService) Preview(ctx context.Context) (Summary, []models.Reservation, error) {
	records, err := s.Ledger.LoadAll(ctx)
	if err != nil {
		return Summary{}, nil, err
	}
	return Summarize(records, s.now()), records, nil
}

// Run executes the job under the ledger lock so no booking lands between
// the archive and the clear. The ledger is cleared only after the archive
// was written and read back intact; a mail failure does not prevent it.
func (s *ReportService) Run(ctx context.Context) (ReportResult, error) {
	var res ReportResult
	err := s.Ledger.Locked(ctx, func(tx repositories.LedgerTx) error {
		records, err := tx.LoadAll()
		if err != nil {
			return err
		}
		day := s.now()
		res.Summary = Summarize(records, day)

		if len(records) > 0 {
			path, err := s.archive(records, day)
			if err != nil {
				return err
			}
			res.ArchivePath = path
		}

		if s.Notifier != nil {
			res.Queued = s.Notifier.SendDailySummary(res.Summary, res.ArchivePath, records)
		}

		if len(records) == 0 {
			return nil
		}
		if err := tx.Clear(); err != nil {
			return err
		}
		res.Cleared = true
		return nil
	})
	if err != nil {
		utils.LogError("", "report", "run", err)
		return res, err
	}
	utils.LogEvent("", "report", "run", fmt.Sprintf("total=%d confirmed=%d pending=%d archive=%s queued=%t",
		res.Summary.Total, res.Summary.Confirmed, res.Summary.Pending, res.ArchivePath, res.Queued))
	return res, nil
}

func (s *ReportService) sheet() string {
	if strings.TrimSpace(s.Sheet) == "" {
		return repositories.DefaultLedgerSheet
	}
	return s.Sheet
}

func (s *ReportService) archive(records []models.Reservation, day time.Time) (string, error) {
	if err := os.MkdirAll(s.ArchiveDir, 0o755); err != nil {
		return "", domain.PersistenceError{Op: "archive", Err: err}
	}
	path := uniquePath(repositories.ArchivePath(s.ArchiveDir, day))
	if err := repositories.WriteLedgerFile(path, s.sheet(), records); err != nil {
		return "", domain.PersistenceError{Op: "archive", Err: err}
	}

	back, err := repositories.ReadLedgerFile(path, s.sheet())
	if err != nil {
		return "", domain.PersistenceError{Op: "archive verify", Err: err}
	}
	if len(back) != len(records) {
		return "", domain.PersistenceError{Op: "archive verify", Err: fmt.Errorf("archive has %d rows, ledger has %d", len(back), len(records))}
	}
	for i := range records {
		if back[i].ID != records[i].ID || back[i].Status != records[i].Status {
			return "", domain.PersistenceError{Op: "archive verify", Err: fmt.Errorf("row %d differs from ledger", i+1)}
		}
	}
	return path, nil
}

// uniquePath appends _2, _3, ... before the extension while path exists, so
// a second run on the same day never overwrites an earlier archive.
func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 2; ; i++ {
		p := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return p
		}
	}
}
