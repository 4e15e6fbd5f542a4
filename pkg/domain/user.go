package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// UserType is the account role assigned by the backend.
type UserType string

// Known user types.
const (
	UserTypeCustomer UserType = "customer"
	UserTypeAdmin    UserType = "admin"
	UserTypeSeller   UserType = "seller"
)

// Label returns the display label for a user type.
func (t UserType) Label() string {
	switch t {
	case UserTypeCustomer:
		return "Customer"
	case UserTypeAdmin:
		return "Admin"
	case UserTypeSeller:
		return "Seller"
	case "":
		return "Unknown"
	}
	return string(t)
}

// KYCStatus is the identity verification state of an account.
type KYCStatus string

// Known KYC states. Anything else the backend sends decodes to KYCUnknown.
const (
	KYCVerified KYCStatus = "verified"
	KYCPending  KYCStatus = "pending"
	KYCRejected KYCStatus = "rejected"
	KYCUnknown  KYCStatus = "unknown"
)

// UnmarshalJSON maps unrecognized states to KYCUnknown instead of failing.
func (k *KYCStatus) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*k = KYCUnknown
		return nil
	}
	switch v := KYCStatus(strings.ToLower(s)); v {
	case KYCVerified, KYCPending, KYCRejected:
		*k = v
	default:
		*k = KYCUnknown
	}
	return nil
}

// Label returns the display label for a KYC state.
func (k KYCStatus) Label() string {
	switch k {
	case KYCVerified:
		return "Verified"
	case KYCPending:
		return "Pending review"
	case KYCRejected:
		return "Rejected"
	}
	return "Not verified"
}

// User is the profile of the signed-in account.
type User struct {
	ID          int64     `json:"user_id"`
	PhoneNumber string    `json:"phone_number"`
	Name        string    `json:"user_name,omitempty"`
	Type        UserType  `json:"user_type"`
	KYCStatus   KYCStatus `json:"kyc_status"`
	Active      bool      `json:"is_active"`
	CreatedAt   string    `json:"created_at"`
}

// createdAtLayouts are the timestamp shapes the backend has been seen to emit.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Joined parses CreatedAt. The second result is false when it is empty or unparseable.
func (u User) Joined() (time.Time, bool) {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, u.CreatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DisplayName returns the user's name, falling back to the formatted phone number.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return FormatPhone(u.PhoneNumber)
}

// LoginResponse is returned by the login and register endpoints.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        User   `json:"user"`
}

// APIResponse is the generic envelope for endpoints that only confirm an action.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
