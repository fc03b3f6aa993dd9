package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain/models"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/repositories"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type memoryLedger struct {
	mu      sync.Mutex
	records []models.Reservation
	saveErr error
	saves   int
}

func (b *memoryLedger) Load(ctx context.Context) ([]models.Reservation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Reservation, len(b.records))
	copy(out, b.records)
	return out, nil
}

func (b *memoryLedger) Save(ctx context.Context, records []models.Reservation) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveErr != nil {
		return b.saveErr
	}
	b.saves++
	b.records = make([]models.Reservation, len(records))
	copy(b.records, records)
	return nil
}

func (b *memoryLedger) snapshot() []models.Reservation {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Reservation, len(b.records))
	copy(out, b.records)
	return out
}

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed []models.Reservation
}

func (n *recordingNotifier) SendBookingConfirmation(rec models.Reservation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, rec)
}

type recordingProofs struct {
	stored []string
	err    error
}

func (p *recordingProofs) StoreProof(ctx context.Context, data []byte, mimeType, documentID, route string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	ref := "proofs/" + documentID + ".jpg"
	p.stored = append(p.stored, ref)
	return ref, nil
}

type recordingMailer struct {
	mu    sync.Mutex
	sent  []models.Mail
	fails int
}

var errMailDown = errors.New("smtp down")

func (m *recordingMailer) Send(ctx context.Context, mail models.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fails > 0 {
		m.fails--
		return errMailDown
	}
	m.sent = append(m.sent, mail)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type testEnv struct {
	svc      *ConversationService
	ledger   *memoryLedger
	store    *repositories.MemorySessionStore
	clock    *fakeClock
	notifier *recordingNotifier
	proofs   *recordingProofs
}

func newTestEnv() *testEnv {
	catalog, err := repositories.NewRouteCatalog(repositories.DefaultRoutes())
	if err != nil {
		panic(err)
	}
	env := &testEnv{
		ledger:   &memoryLedger{},
		store:    repositories.NewMemorySessionStore(),
		clock:    newFakeClock(),
		notifier: &recordingNotifier{},
		proofs:   &recordingProofs{},
	}
	env.svc = &ConversationService{
		Catalog:  catalog,
		Ledger:   repositories.NewLedgerRepository(env.ledger),
		Sessions: SessionRegistry{Store: env.store, Now: env.clock.Now},
		Proofs:   env.proofs,
		Notifier: env.notifier,
		Replies:  Replies{CompanyName: "Transporte Progreso del Chocó", PaymentInstructions: "Paga por Nequi"},
		Now:      env.clock.Now,
	}
	return env
}

func (e *testEnv) state(sender string) models.State {
	sess, ok := e.store.Get(sender)
	if !ok {
		return ""
	}
	return sess.State
}
