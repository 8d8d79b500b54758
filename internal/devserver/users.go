package devserver

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	errUserIDTaken = errors.New("user id already registered")
	errEmailTaken  = errors.New("email already registered")
)

type user struct {
	ID           string
	UserID       string
	UserName     string
	Email        string
	PasswordHash string
}

// userTable indexes accounts by user id and by email, both case-insensitive.
type userTable struct {
	mu      sync.RWMutex
	byID    map[string]*user
	byEmail map[string]*user
}

func newUserTable() *userTable {
	return &userTable{
		byID:    make(map[string]*user),
		byEmail: make(map[string]*user),
	}
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (t *userTable) emailTaken(email string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.byEmail[foldKey(email)]
	return ok
}

// conflict reports why userID or email cannot be registered, or nil.
func (t *userTable) conflict(userID, email string) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if _, ok := t.byID[foldKey(userID)]; ok {
		return errUserIDTaken
	}
	if _, ok := t.byEmail[foldKey(email)]; ok {
		return errEmailTaken
	}
	return nil
}

func (t *userTable) insert(u user) (*user, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byID[foldKey(u.UserID)]; ok {
		return nil, errUserIDTaken
	}
	if _, ok := t.byEmail[foldKey(u.Email)]; ok {
		return nil, errEmailTaken
	}
	u.ID = uuid.NewString()
	u.Email = foldKey(u.Email)
	stored := &u
	t.byID[foldKey(u.UserID)] = stored
	t.byEmail[u.Email] = stored
	return stored, nil
}

// lookup resolves an identifier that may be either a user id or an email.
func (t *userTable) lookup(identifier string) (user, bool) {
	key := foldKey(identifier)
	t.mu.RLock()
	defer t.mu.RUnlock()
	if u, ok := t.byID[key]; ok {
		return *u, true
	}
	if u, ok := t.byEmail[key]; ok {
		return *u, true
	}
	return user{}, false
}

func (t *userTable) setPassword(email, hash string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.byEmail[foldKey(email)]
	if !ok {
		return false
	}
	u.PasswordHash = hash
	return true
}
