// Package tokenstore persists the session token and the cached user profile.
package tokenstore

import (
	"encoding/json"

	"github.com/naveenspark/investa/pkg/domain"
)

// Storage keys for the persisted record.
const (
	KeyToken = "access_token"
	KeyUser  = "user_info"
)

// Store holds at most one (token, user) record.
//
// Read never fails: a missing or unreadable entry reads as absent. Write stores
// both entries in one step, and Clear is idempotent.
type Store interface {
	Read() (token string, user *domain.User)
	Write(token string, user domain.User) error
	Clear() error
}

// decodeUser returns nil for empty or corrupt data.
func decodeUser(data []byte) *domain.User {
	if len(data) == 0 {
		return nil
	}
	var u domain.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil
	}
	return &u
}
