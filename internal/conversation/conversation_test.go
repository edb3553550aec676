package conversation

import (
	"sync"
	"testing"
	"time"

	"github.com/reviewpipe/ReviewPipe/internal/models"
)

func TestGetUnknownUserReturnsFreshStart(t *testing.T) {
	m := NewManager()

	before := time.Now()
	state := m.Get("+15551234567")
	after := time.Now()

	if state.Stage != models.StageStart {
		t.Errorf("stage = %q, want %q", state.Stage, models.StageStart)
	}
	if state.LastUpdated.Before(before) || state.LastUpdated.After(after) {
		t.Errorf("LastUpdated %v not within [%v, %v]", state.LastUpdated, before, after)
	}
	if m.Len() != 0 {
		t.Errorf("Get must not create entries, store has %d", m.Len())
	}
}

func TestUpdateStampsLastUpdated(t *testing.T) {
	m := NewManager()
	stale := models.ConversationState{Stage: models.StageAwaitingName, Product: "Soap"}

	m.Update("+1", stale)
	got := m.Get("+1")

	if got.Stage != models.StageAwaitingName || got.Product != "Soap" {
		t.Errorf("stored state mismatch: %+v", got)
	}
	if got.LastUpdated.IsZero() {
		t.Error("Update must stamp LastUpdated")
	}
}

func TestResetIsIdempotent(t *testing.T) {
	m := NewManager()
	m.Update("+1", models.ConversationState{Stage: models.StageAwaitingReview})

	m.Reset("+1")
	m.Reset("+1") // absent entry, must not panic

	state := m.Get("+1")
	if state.Stage != models.StageStart {
		t.Errorf("after reset, stage = %q, want fresh start", state.Stage)
	}
	if m.Len() != 0 {
		t.Errorf("after reset, store has %d entries", m.Len())
	}
}

func TestUpdateIsolatesUsers(t *testing.T) {
	m := NewManager()
	m.Update("+1", models.ConversationState{Stage: models.StageAwaitingProduct})
	m.Update("+2", models.ConversationState{Stage: models.StageAwaitingReview, Product: "Soap", Name: "Ravi"})

	if got := m.Get("+1"); got.Stage != models.StageAwaitingProduct {
		t.Errorf("user +1 stage = %q", got.Stage)
	}
	if got := m.Get("+2"); got.Stage != models.StageAwaitingReview {
		t.Errorf("user +2 stage = %q", got.Stage)
	}
}

func TestLockSerializesSameUser(t *testing.T) {
	m := NewManager()

	// Two goroutines perform a read-transition-write on the same user under
	// the per-user lock; interleaving would lose one of the increments.
	const turns = 100
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < turns; j++ {
				unlock := m.Lock("+1")
				state := m.Get("+1")
				state.Stage = models.StageAwaitingProduct
				state.Product = state.Product + "x"
				m.Update("+1", state)
				unlock()
			}
		}()
	}
	wg.Wait()

	if got := m.Get("+1"); len(got.Product) != 2*turns {
		t.Errorf("lost updates under per-user lock: got %d, want %d", len(got.Product), 2*turns)
	}
}

func TestLockDistinctUsersDoNotBlock(t *testing.T) {
	m := NewManager()

	unlock1 := m.Lock("+1")
	defer unlock1()

	done := make(chan struct{})
	go func() {
		unlock2 := m.Lock("+2")
		unlock2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock for a different user blocked")
	}
}
