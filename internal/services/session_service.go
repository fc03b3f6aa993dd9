package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain/models"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/repositories"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/utils"
)

// SessionRegistry hands out one session per sender and stamps activity.
type SessionRegistry struct {
	Store repositories.SessionStore
	Now   func() time.Time
}

func (r SessionRegistry) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// GetOrCreate returns the sender's session, creating it in the menu state.
// Every call refreshes LastActivity.
func (r SessionRegistry) GetOrCreate(senderID string) models.Session {
	sess, ok := r.Store.Get(senderID)
	if !ok {
		sess = models.Session{SenderID: senderID, State: models.StateMenu}
	}
	sess.LastActivity = r.now()
	r.Store.Put(sess)
	return sess
}

// Save stores the session after the controller changed it.
func (r SessionRegistry) Save(sess models.Session) {
	sess.LastActivity = r.now()
	r.Store.Put(sess)
}

// SweepExpired drops sessions idle for longer than timeout.
func (r SessionRegistry) SweepExpired(now time.Time, timeout time.Duration) int {
	return r.Store.Sweep(now.Add(-timeout))
}

func (r SessionRegistry) Count() int {
	return r.Store.Count()
}

// RunSweeper calls SweepExpired every interval until ctx is done. Expiry
// granularity is therefore the interval, not the timeout.
func RunSweeper(ctx context.Context, reg SessionRegistry, interval, timeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := reg.SweepExpired(reg.now(), timeout); n > 0 {
				utils.LogEvent("", "session", "sweep", fmt.Sprintf("expired=%d active=%d", n, reg.Count()))
			}
		}
	}
}

// senderLocks serializes event handling per sender.
type senderLocks struct {
	mu sync.Mutex
	m  map[string]*senderLock
}

type senderLock struct {
	sync.Mutex
	refs int
}

func (l *senderLocks) lock(id string) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*senderLock)
	}
	sl := l.m[id]
	if sl == nil {
		sl = &senderLock{}
		l.m[id] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.Lock()
	return func() {
		sl.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}
