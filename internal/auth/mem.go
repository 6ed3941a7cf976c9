package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type memAccount struct {
	id           string
	email        string
	passwordHash string
}

// MemBackend is an in-memory credential store used by tests and the
// no-infrastructure dev mode.
type MemBackend struct {
	mu       sync.Mutex
	byEmail  map[string]*memAccount
	byUserID map[string]*memAccount
}

func NewMemBackend() *MemBackend {
	return &MemBackend{
		byEmail:  make(map[string]*memAccount),
		byUserID: make(map[string]*memAccount),
	}
}

func (b *MemBackend) CreateAccount(ctx context.Context, email, password string) (string, error) {
	hashed, err := hashPassword(password)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.byEmail[email]; ok {
		return "", ErrEmailExists
	}
	account := &memAccount{id: uuid.NewString(), email: email, passwordHash: hashed}
	b.byEmail[email] = account
	b.byUserID[account.id] = account
	return account.id, nil
}

func (b *MemBackend) Authenticate(ctx context.Context, email, password string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	account, ok := b.byEmail[email]
	if !ok || !checkPassword(account.passwordHash, password) {
		return "", ErrInvalidCredentials
	}
	return account.id, nil
}

func (b *MemBackend) Reauthenticate(ctx context.Context, userID, password string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	account, ok := b.byUserID[userID]
	if !ok || !checkPassword(account.passwordHash, password) {
		return ErrInvalidCredentials
	}
	return nil
}

func (b *MemBackend) UpdateEmail(ctx context.Context, userID, email string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	account, ok := b.byUserID[userID]
	if !ok {
		return ErrInvalidCredentials
	}
	delete(b.byEmail, account.email)
	account.email = email
	b.byEmail[email] = account
	return nil
}

func (b *MemBackend) UpdatePassword(ctx context.Context, userID, password string) error {
	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	account, ok := b.byUserID[userID]
	if !ok {
		return ErrInvalidCredentials
	}
	account.passwordHash = hashed
	return nil
}

func (b *MemBackend) DeleteAccount(ctx context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	account, ok := b.byUserID[userID]
	if !ok {
		return ErrInvalidCredentials
	}
	delete(b.byEmail, account.email)
	delete(b.byUserID, userID)
	return nil
}
