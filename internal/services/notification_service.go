package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain/models"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/utils"

	"gopkg.in/gomail.v2"
)

// Mailer delivers one email.
type Mailer interface {
	Send(ctx context.Context, mail models.Mail) error
}

// SMTPMailer sends through an authenticated SMTP relay (STARTTLS on 587).
type SMTPMailer struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

func (m SMTPMailer) Send(ctx context.Context, mail models.Mail) error {
	if err := ctx.Err(); err != nil {
		return domain.NotificationError{Kind: "smtp", Err: err}
	}
	if len(mail.To) == 0 {
		return domain.NotificationError{Kind: "smtp", Err: fmt.Errorf("no recipients")}
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", mail.To...)
	msg.SetHeader("Subject", mail.Subject)
	msg.SetBody("text/plain", mail.Body)
	for _, a := range mail.Attachments {
		switch {
		case a.Data != nil:
			data := a.Data
			msg.Attach(a.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}))
		case a.Filename != "":
			msg.Attach(a.Path, gomail.Rename(a.Filename))
		default:
			msg.Attach(a.Path)
		}
	}

	d := gomail.NewDialer(m.Host, m.Port, m.User, m.Pass)
	if err := d.DialAndSend(msg); err != nil {
		return domain.NotificationError{Kind: "smtp", Err: err}
	}
	return nil
}

// LogMailer only logs; it stands in when SMTP is not configured.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, mail models.Mail) error {
	utils.LogEvent("", "mail", "skip", fmt.Sprintf("smtp disabled, subject=%q attachments=%d", mail.Subject, len(mail.Attachments)))
	return nil
}

type notifyJob struct {
	kind string
	mail models.Mail
}

// Dispatcher queues notification mails and delivers them on a single worker
// with bounded retries. Enqueueing never blocks the caller.
type Dispatcher struct {
	Mailer      Mailer
	To          []string
	MaxAttempts int
	Backoff     time.Duration
	// LedgerPath, when set, is attached to booking confirmations.
	LedgerPath string

	queue  chan notifyJob
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(mailer Mailer, to []string, queueSize, maxAttempts int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Dispatcher{
		Mailer:      mailer,
		To:          to,
		MaxAttempts: maxAttempts,
		Backoff:     2 * time.Second,
		queue:       make(chan notifyJob, queueSize),
	}
}

// Start runs the worker until Close. ctx bounds each delivery and aborts
// pending retries.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for job := range d.queue {
			d.deliver(ctx, job)
		}
	}()
}

// Close stops accepting jobs and waits for queued ones to be attempted.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) enqueue(job notifyJob) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		utils.LogEvent("", "notify", job.kind, "dispatcher closed, dropped")
		return false
	}
	select {
	case d.queue <- job:
		return true
	default:
		utils.LogEvent("", "notify", job.kind, "queue full, dropped")
		return false
	}
}

func (d *Dispatcher) deliver(ctx context.Context, job notifyJob) {
	for attempt := 1; attempt <= d.MaxAttempts; attempt++ {
		err := d.Mailer.Send(ctx, job.mail)
		if err == nil {
			utils.LogEvent("", "notify", job.kind, fmt.Sprintf("sent subject=%q attempt=%d", job.mail.Subject, attempt))
			return
		}
		utils.LogError("", "notify", job.kind, fmt.Errorf("attempt %d/%d: %w", attempt, d.MaxAttempts, err))
		if attempt == d.MaxAttempts {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.Backoff * time.Duration(attempt)):
		}
	}
}

// SendBookingConfirmation queues the internal notice of a confirmed payment
// with the ticket, the proof and the current ledger attached.
func (d *Dispatcher) SendBookingConfirmation(rec models.Reservation) {
	confirmed := ""
	if rec.ConfirmationTimestamp != nil {
		confirmed = utils.FormatDateTime(*rec.ConfirmationTimestamp)
	}
	body := fmt.Sprintf(`Nueva reserva con pago confirmado

Nombre: %s
Documento: %s
Teléfono: %s
Ruta: %s
Horario: %s
Valor: %s
Reservado: %s
Confirmado: %s
Código: %s
`, rec.Name, rec.DocumentID, rec.Phone, strings.ToUpper(rec.Route), rec.DepartureTime,
		utils.FormatPesos(rec.Fare), utils.FormatDateTime(rec.Timestamp), confirmed, rec.ID)

	mail := models.Mail{
		To:      d.To,
		Subject: fmt.Sprintf("Pago confirmado - %s - %s", rec.Name, strings.ToUpper(rec.Route)),
		Body:    body,
	}
	if a, ok := ticketFor(rec); ok {
		mail.Attachments = append(mail.Attachments, a)
	}
	if fileExists(rec.ProofReference) {
		mail.Attachments = append(mail.Attachments, models.Attachment{Path: rec.ProofReference})
	}
	if fileExists(d.LedgerPath) {
		mail.Attachments = append(mail.Attachments, models.Attachment{Path: d.LedgerPath})
	}
	d.enqueue(notifyJob{kind: "booking", mail: mail})
}

// SendDailySummary queues the end-of-day report mail with the archived
// ledger, the summary PDF and the proofs confirmed that day.
func (d *Dispatcher) SendDailySummary(sum Summary, archivePath string, records []models.Reservation) bool {
	body := fmt.Sprintf(`Resumen de ventas del %s

Reservas totales: %d (%s)
Pagos confirmados: %d (%s)
Pagos pendientes: %d
`, utils.FormatDate(sum.Date), sum.Total, utils.FormatPesos(sum.TotalValue),
		sum.Confirmed, utils.FormatPesos(sum.ConfirmedValue), sum.Pending)

	mail := models.Mail{
		To:      d.To,
		Subject: "Resumen de ventas " + utils.FormatDate(sum.Date),
		Body:    body,
	}
	if archivePath != "" {
		mail.Attachments = append(mail.Attachments, models.Attachment{Path: archivePath})
	}
	for _, r := range records {
		if r.ConfirmedOn(sum.Date) && fileExists(r.ProofReference) {
			mail.Attachments = append(mail.Attachments, models.Attachment{Path: r.ProofReference})
		}
	}
	if data, name, err := GenerateDailySummary(sum, records); err != nil {
		utils.LogError("", "docs", "summary", err)
	} else {
		mail.Attachments = append(mail.Attachments, models.Attachment{Filename: name, Data: data})
	}
	return d.enqueue(notifyJob{kind: "daily_summary", mail: mail})
}

func fileExists(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
