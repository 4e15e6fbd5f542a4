package tokenstore

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/naveenspark/investa/pkg/domain"
)

// Memory is a process-local Store. The user is kept serialized so reads return
// a fresh copy, the same as the file-backed store.
type Memory struct {
	mu    sync.RWMutex
	token string
	user  []byte
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Read() (string, *domain.User) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, decodeUser(m.user)
}

func (m *Memory) Write(token string, user domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("tokenstore.Write: marshal user: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.user = data
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.user = nil
	return nil
}

// Seed sets raw entries without validation. Tests use it to plant stale or corrupt records.
func (m *Memory) Seed(token string, rawUser []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.user = rawUser
}
