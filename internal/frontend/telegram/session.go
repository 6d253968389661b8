package telegram

import (
	"sync"

	"github.com/cinedesk/cinedesk/internal/listing"
	"github.com/cinedesk/cinedesk/internal/upload"
)

// session is the per-chat controller pair.
type session struct {
	lister   *listing.Lister
	uploader *upload.Controller
}

// sessionManager manages per-chat sessions and access control.
type sessionManager struct {
	mu          sync.Mutex
	sessions    map[int64]*session
	allowed     map[int64]bool // nil or empty = allow all
	newLister   func() *listing.Lister
	newUploader func() *upload.Controller
}

// newSessionManager creates a session manager.
// If allowedUserIDs is empty, all users are allowed.
func newSessionManager(
	allowedUserIDs []int64,
	newLister func() *listing.Lister,
	newUploader func() *upload.Controller,
) *sessionManager {
	allowed := make(map[int64]bool, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = true
	}
	return &sessionManager{
		sessions:    make(map[int64]*session),
		allowed:     allowed,
		newLister:   newLister,
		newUploader: newUploader,
	}
}

// isAllowed checks if a user is authorized to use the bot.
func (sm *sessionManager) isAllowed(userID int64) bool {
	if len(sm.allowed) == 0 {
		return true
	}
	return sm.allowed[userID]
}

// get returns the chat's session, creating it on first use.
func (sm *sessionManager) get(chatID int64) *session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if s, ok := sm.sessions[chatID]; ok {
		return s
	}
	s := &session{lister: sm.newLister(), uploader: sm.newUploader()}
	sm.sessions[chatID] = s
	return s
}

// reset drops a chat's session so its filters start over.
func (sm *sessionManager) reset(chatID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, chatID)
}
