package session

import (
	"sync"
	"testing"
	"time"

	"github.com/erauner12/storefront/internal/auth"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestStore(ttl time.Duration) (*Store, *testClock) {
	clock := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewStore(ttl, WithClock(clock.Now)), clock
}

func TestStore_CreateAndGet(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	tokens := auth.NewManager(nil)

	created := store.Create(tokens)
	if created.ID == "" {
		t.Fatal("expected session ID")
	}

	got, ok := store.Get(created.ID)
	if !ok {
		t.Fatal("expected session to exist")
	}
	if got.Tokens != tokens {
		t.Error("expected session to hold the token manager")
	}
}

func TestStore_GetExtendsExpiry(t *testing.T) {
	store, clock := newTestStore(time.Minute)
	created := store.Create(auth.NewManager(nil))

	clock.Advance(45 * time.Second)
	if _, ok := store.Get(created.ID); !ok {
		t.Fatal("expected session to be alive")
	}

	// Past the original expiry but within the extended window
	clock.Advance(45 * time.Second)
	got, ok := store.Get(created.ID)
	if !ok {
		t.Fatal("expected session to be extended by use")
	}
	if want := clock.Now().Add(time.Minute); !got.ExpiresAt.Equal(want) {
		t.Errorf("expected expiresAt %v, got %v", want, got.ExpiresAt)
	}
}

func TestStore_ExpiredSessionIsGone(t *testing.T) {
	store, clock := newTestStore(time.Minute)
	created := store.Create(auth.NewManager(nil))

	clock.Advance(2 * time.Minute)
	if _, ok := store.Get(created.ID); ok {
		t.Fatal("expected expired session to be rejected")
	}
	if store.Len() != 0 {
		t.Errorf("expected expired session to be removed, have %d", store.Len())
	}
}

func TestStore_CreateCleansUpExpired(t *testing.T) {
	store, clock := newTestStore(time.Minute)
	store.Create(auth.NewManager(nil))
	store.Create(auth.NewManager(nil))

	clock.Advance(2 * time.Minute)
	store.Create(auth.NewManager(nil))

	if store.Len() != 1 {
		t.Errorf("expected 1 live session, have %d", store.Len())
	}
}

func TestStore_UpdateAndConsumePending(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	created := store.Create(auth.NewManager(nil))

	_, ok := store.Update(created.ID, func(s *Session) {
		s.Pending = &PendingLogin{State: "st", Verifier: "v", ReturnTo: "/orders"}
	})
	if !ok {
		t.Fatal("expected update to succeed")
	}

	pending, ok := store.ConsumePending(created.ID)
	if !ok {
		t.Fatal("expected pending login")
	}
	if pending.State != "st" || pending.Verifier != "v" || pending.ReturnTo != "/orders" {
		t.Errorf("unexpected pending login: %+v", pending)
	}

	if _, ok := store.ConsumePending(created.ID); ok {
		t.Error("pending login must only be consumable once")
	}
}

func TestStore_UpdateKeepsID(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	created := store.Create(auth.NewManager(nil))

	updated, _ := store.Update(created.ID, func(s *Session) {
		s.ID = "hijacked"
		s.Profile = &auth.Profile{Subject: "user-1"}
	})
	if updated.ID != created.ID {
		t.Errorf("expected ID %s, got %s", created.ID, updated.ID)
	}
	got, _ := store.Get(created.ID)
	if got.Profile == nil || got.Profile.Subject != "user-1" {
		t.Errorf("expected profile to be stored, got %+v", got.Profile)
	}
}

func TestStore_UpdateMissing(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	if _, ok := store.Update("nope", func(*Session) {}); ok {
		t.Error("expected update of unknown session to fail")
	}
}

func TestStore_Delete(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	created := store.Create(auth.NewManager(nil))

	if !store.Delete(created.ID) {
		t.Fatal("expected delete to report existing session")
	}
	if store.Delete(created.ID) {
		t.Error("second delete should report missing session")
	}
	if _, ok := store.Get(created.ID); ok {
		t.Error("deleted session still retrievable")
	}
}

func TestNewStore_DefaultTTL(t *testing.T) {
	store := NewStore(0)
	if store.ttl != DefaultTTL {
		t.Errorf("expected default TTL %v, got %v", DefaultTTL, store.ttl)
	}
}
