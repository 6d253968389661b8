package telegram

import (
	"sync"
	"testing"

	"github.com/cinedesk/cinedesk/internal/listing"
	"github.com/cinedesk/cinedesk/internal/upload"
)

func testSessionManager(allowed []int64) *sessionManager {
	cat := &fakeCatalog{}
	return newSessionManager(allowed,
		func() *listing.Lister { return listing.New(cat, nil, nil) },
		func() *upload.Controller { return upload.New(cat, nil, nil) },
	)
}

func TestSessionManager_IsAllowed(t *testing.T) {
	t.Run("empty whitelist allows all", func(t *testing.T) {
		sm := testSessionManager(nil)
		if !sm.isAllowed(123) || !sm.isAllowed(456) {
			t.Error("expected all users allowed with nil whitelist")
		}
	})

	t.Run("whitelist restricts", func(t *testing.T) {
		sm := testSessionManager([]int64{100, 200})
		if !sm.isAllowed(100) || !sm.isAllowed(200) {
			t.Error("expected whitelisted users allowed")
		}
		if sm.isAllowed(300) {
			t.Error("expected user 300 denied")
		}
	})
}

func TestSessionManager_Get(t *testing.T) {
	sm := testSessionManager(nil)

	s1 := sm.get(1)
	if s1 == nil || s1.lister == nil || s1.uploader == nil {
		t.Fatal("expected a complete session")
	}
	if sm.get(1) != s1 {
		t.Error("expected the same session for the same chat")
	}
	if sm.get(2) == s1 {
		t.Error("expected different sessions for different chats")
	}
}

func TestSessionManager_Reset(t *testing.T) {
	sm := testSessionManager(nil)

	s1 := sm.get(1)
	sm.reset(1)
	if sm.get(1) == s1 {
		t.Error("expected a new session after reset")
	}
}

func TestSessionManager_Concurrent(t *testing.T) {
	sm := testSessionManager(nil)

	var wg sync.WaitGroup
	results := make([]*session, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = sm.get(42)
		}(i)
	}
	wg.Wait()

	for _, s := range results[1:] {
		if s != results[0] {
			t.Fatal("concurrent get returned different sessions")
		}
	}
}
