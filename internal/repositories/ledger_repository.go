package repositories

import (
	"context"
	"sync"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain/models"
)

// LedgerBackend reads and overwrites the whole ledger. Implementations need
// not be safe for concurrent use; LedgerRepository serializes them.
type LedgerBackend interface {
	Load(ctx context.Context) ([]models.Reservation, error)
	Save(ctx context.Context, records []models.Reservation) error
}

// LedgerRepository is the mutex-guarded read-modify-write store over a
// LedgerBackend. Every mutation re-reads and rewrites the full ledger.
type LedgerRepository struct {
	Backend LedgerBackend

	mu sync.Mutex
}

func NewLedgerRepository(backend LedgerBackend) *LedgerRepository {
	return &LedgerRepository{Backend: backend}
}

// LoadAll returns every row; a ledger that does not exist yet is empty.
func (r *LedgerRepository) LoadAll(ctx context.Context) ([]models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// SaveAll overwrites the ledger with records.
func (r *LedgerRepository) SaveAll(ctx context.Context, records []models.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(ctx, "save", records)
}

// Append adds one row at the end of the ledger.
func (r *LedgerRepository) Append(ctx context.Context, rec models.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load(ctx)
	if err != nil {
		return err
	}
	records = append(records, rec)
	return r.save(ctx, "append", records)
}

// AppendUnless appends rec unless a row already satisfies conflict. When one
// does, that row is returned with appended=false and nothing is written.
func (r *LedgerRepository) AppendUnless(ctx context.Context, rec models.Reservation, conflict func(models.Reservation) bool) (existing models.Reservation, appended bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load(ctx)
	if err != nil {
		return models.Reservation{}, false, err
	}
	for _, row := range records {
		if conflict(row) {
			return row, false, nil
		}
	}
	if err := r.save(ctx, "append", append(records, rec)); err != nil {
		return models.Reservation{}, false, err
	}
	return rec, true, nil
}

// UpdateWhere applies mutate to the oldest row matching match and persists
// the ledger. found is false when no row matched; nothing is written then.
func (r *LedgerRepository) UpdateWhere(ctx context.Context, match func(models.Reservation) bool, mutate func(*models.Reservation) error) (models.Reservation, bool, error) {
	return r.update(ctx, false, match, mutate)
}

// UpdateLatest is UpdateWhere scanning from the newest row.
func (r *LedgerRepository) UpdateLatest(ctx context.Context, match func(models.Reservation) bool, mutate func(*models.Reservation) error) (models.Reservation, bool, error) {
	return r.update(ctx, true, match, mutate)
}

// Clear empties the ledger.
func (r *LedgerRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(ctx, "clear", nil)
}

// Locked runs fn while holding the ledger lock, so no booking can append
// between fn's read and its write. fn must use the passed tx, not r.
func (r *LedgerRepository) Locked(ctx context.Context, fn func(tx LedgerTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(LedgerTx{repo: r, ctx: ctx})
}

// LedgerTx exposes unlocked load/save to a Locked callback.
type LedgerTx struct {
	repo *LedgerRepository
	ctx  context.Context
}

func (tx LedgerTx) LoadAll() ([]models.Reservation, error) {
	return tx.repo.load(tx.ctx)
}

func (tx LedgerTx) SaveAll(records []models.Reservation) error {
	return tx.repo.save(tx.ctx, "save", records)
}

func (tx LedgerTx) Clear() error {
	return tx.repo.save(tx.ctx, "clear", nil)
}

func (r *LedgerRepository) update(ctx context.Context, newestFirst bool, match func(models.Reservation) bool, mutate func(*models.Reservation) error) (models.Reservation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load(ctx)
	if err != nil {
		return models.Reservation{}, false, err
	}

	idx := -1
	if newestFirst {
		for i := len(records) - 1; i >= 0; i-- {
			if match(records[i]) {
				idx = i
				break
			}
		}
	} else {
		for i := range records {
			if match(records[i]) {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return models.Reservation{}, false, nil
	}

	if err := mutate(&records[idx]); err != nil {
		return models.Reservation{}, true, err
	}
	if err := r.save(ctx, "update", records); err != nil {
		return models.Reservation{}, true, err
	}
	return records[idx], true, nil
}

func (r *LedgerRepository) load(ctx context.Context) ([]models.Reservation, error) {
	records, err := r.Backend.Load(ctx)
	if err != nil {
		return nil, domain.PersistenceError{Op: "load", Err: err}
	}
	if records == nil {
		records = []models.Reservation{}
	}
	return records, nil
}

func (r *LedgerRepository) save(ctx context.Context, op string, records []models.Reservation) error {
	if records == nil {
		records = []models.Reservation{}
	}
	if err := r.Backend.Save(ctx, records); err != nil {
		return domain.PersistenceError{Op: op, Err: err}
	}
	return nil
}
