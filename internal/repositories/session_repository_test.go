package repositories

import (
	"testing"
	"time"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain/models"
)

func TestMemorySessionStoreSweep(t *testing.T) {
	store := NewMemorySessionStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store.Put(models.Session{SenderID: "old", State: models.StateCollectingName, LastActivity: now.Add(-2 * time.Hour)})
	store.Put(models.Session{SenderID: "fresh", State: models.StateMenu, LastActivity: now.Add(-10 * time.Minute)})

	if removed := store.Sweep(now.Add(-time.Hour)); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, ok := store.Get("old"); ok {
		t.Fatalf("expired session still present")
	}
	if _, ok := store.Get("fresh"); !ok {
		t.Fatalf("fresh session swept")
	}
	if store.Count() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Count())
	}

	store.Delete("fresh")
	if store.Count() != 0 {
		t.Fatalf("Delete did not remove session")
	}
}

func TestMemorySessionStoreOneSessionPerSender(t *testing.T) {
	store := NewMemorySessionStore()
	store.Put(models.Session{SenderID: "a", State: models.StateMenu})
	store.Put(models.Session{SenderID: "a", State: models.StateCollectingDocument})
	if store.Count() != 1 {
		t.Fatalf("expected single session, got %d", store.Count())
	}
	got, _ := store.Get("a")
	if got.State != models.StateCollectingDocument {
		t.Fatalf("Put did not replace session, state %s", got.State)
	}
}
