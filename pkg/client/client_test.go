package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/naveenspark/investa/pkg/domain"
)

func TestMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/me" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "not authenticated"}) //nolint:errcheck
			return
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		json.NewEncoder(w).Encode(domain.User{ //nolint:errcheck
			ID:          7,
			PhoneNumber: "01012345678",
			Type:        domain.UserTypeCustomer,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "/api")
	me, err := c.Me(context.Background(), "test-token")
	if err != nil {
		t.Fatalf("Me() error: %v", err)
	}
	if me.ID != 7 {
		t.Errorf("ID = %d, want 7", me.ID)
	}
	if me.PhoneNumber != "01012345678" {
		t.Errorf("PhoneNumber = %q, want %q", me.PhoneNumber, "01012345678")
	}
}

func TestMe_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "token expired"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, "/api")
	_, err := c.Me(context.Background(), "bad-token")
	if err == nil {
		t.Fatal("expected error for unauthorized request")
	}
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("error = %v, want ErrTokenInvalid", err)
	}
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("IsStatus(401) = false for %v", err)
	}
	if got := Message(err); got != "token expired" {
		t.Errorf("Message() = %q, want %q", got, "token expired")
	}
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.PhoneNumber != "0101234567" || req.Password != "123456" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "wrong password"}) //nolint:errcheck
			return
		}
		json.NewEncoder(w).Encode(domain.LoginResponse{ //nolint:errcheck
			AccessToken: "abc",
			TokenType:   "bearer",
			ExpiresIn:   3600,
			User:        domain.User{ID: 1, PhoneNumber: req.PhoneNumber},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "/api")
	resp, err := c.Login(context.Background(), "0101234567", "123456")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if resp.AccessToken != "abc" {
		t.Errorf("AccessToken = %q, want abc", resp.AccessToken)
	}
	if resp.User.PhoneNumber != "0101234567" {
		t.Errorf("User.PhoneNumber = %q", resp.User.PhoneNumber)
	}

	_, err = c.Login(context.Background(), "0101234567", "654321")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if got := Message(err); got != "wrong password" {
		t.Errorf("Message() = %q, want backend message", got)
	}
}

func TestLogin_ValidationSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "/api")
	tests := []struct {
		name     string
		phone    string
		password string
	}{
		{"short phone", "01012", "123456"},
		{"short password", "0101234567", "1234"},
		{"letters in password", "0101234567", "12345a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Login(context.Background(), tt.phone, tt.password)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want *domain.ValidationError", err)
			}
		})
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("server called %d times, want 0", n)
	}
}

func TestRegister(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch req.PhoneNumber {
		case "01099998888":
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"detail": "already registered"}) //nolint:errcheck
			return
		case "01077776666":
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]any{"detail": []map[string]string{{"msg": "bad"}}}) //nolint:errcheck
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(domain.LoginResponse{ //nolint:errcheck
			AccessToken: "new-token",
			User:        domain.User{ID: 9, PhoneNumber: req.PhoneNumber, Name: req.UserName},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "/api")
	resp, err := c.Register(context.Background(), "01012345678", "123456", " Park ")
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if resp.User.Name != "Park" {
		t.Errorf("User.Name = %q, want trimmed name", resp.User.Name)
	}

	_, err = c.Register(context.Background(), "01099998888", "123456", "")
	if !errors.Is(err, ErrDuplicateAccount) {
		t.Errorf("duplicate error = %v, want ErrDuplicateAccount", err)
	}

	_, err = c.Register(context.Background(), "01077776666", "123456", "")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("422 error = %v, want *domain.ValidationError", err)
	}
}

func TestSendAndVerifySMS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/send-sms":
			json.NewEncoder(w).Encode(domain.APIResponse{Success: true, Message: "code sent"}) //nolint:errcheck
		case "/api/auth/verify-sms":
			var req verifySMSRequest
			json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
			if req.VerificationCode != "123456" {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"message": "code does not match"}) //nolint:errcheck
				return
			}
			json.NewEncoder(w).Encode(domain.APIResponse{Success: true, Message: "verified"}) //nolint:errcheck
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "/api")
	sent, err := c.SendSMS(context.Background(), "01012345678")
	if err != nil {
		t.Fatalf("SendSMS() error: %v", err)
	}
	if sent.Message != "code sent" {
		t.Errorf("Message = %q", sent.Message)
	}

	if _, err := c.VerifySMS(context.Background(), "01012345678", "123456"); err != nil {
		t.Fatalf("VerifySMS() error: %v", err)
	}
	_, err = c.VerifySMS(context.Background(), "01012345678", "000000")
	if !errors.Is(err, ErrCodeMismatch) {
		t.Errorf("VerifySMS(wrong) error = %v, want ErrCodeMismatch", err)
	}
}

func TestSendSMS_InvalidPhoneFromServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "unsupported carrier"}) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := New(srv.URL, "/api").SendSMS(context.Background(), "01012345678")
	if !errors.Is(err, ErrInvalidPhone) {
		t.Errorf("error = %v, want ErrInvalidPhone", err)
	}
}

func TestLogout_SendsToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := New(srv.URL, "/api").Logout(context.Background(), "tok")
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok")
	}
	if !IsStatus(err, http.StatusInternalServerError) {
		t.Errorf("IsStatus(500) = false for %v", err)
	}
	if got := Message(err); got != "server error (HTTP 500)" {
		t.Errorf("Message() = %q", got)
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "boom"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, "/api")
	_, err := c.Me(context.Background(), "tok")
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if errors.Is(err, ErrTokenInvalid) {
		t.Error("500 must not be classified as ErrTokenInvalid")
	}
	if got := err.Error(); !strings.Contains(got, "boom") {
		t.Errorf("error = %q, want it to contain 'boom'", got)
	}
}

func TestTransportError_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url, "/api").Me(context.Background(), "tok")
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if tErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", tErr.StatusCode)
	}
	if got := Message(err); got != "could not reach the server" {
		t.Errorf("Message() = %q", got)
	}
}

func TestHealthIgnoresPrefix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if !New(srv.URL+"/", "/api/").Health(context.Background()) {
		t.Error("Health() = false, want true")
	}
}

func TestDoRequest_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(5 * time.Second)              // slow server
		json.NewEncoder(w).Encode(domain.User{}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, "/api")
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	_, err := c.Me(ctx, "tok")
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestWithTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "/api", WithTimeout(50*time.Millisecond))
	start := time.Now()
	_, err := c.Test(context.Background())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("request took %v, want it bounded by the client timeout", elapsed)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"message":"m"}`, "m"},
		{`{"detail":"d"}`, "d"},
		{`{"error":"e"}`, "e"},
		{`{"detail":[{"msg":"x"}]}`, ""},
		{`plain failure`, "plain failure"},
		{`<html>oops</html>`, ""},
	}
	for _, tt := range tests {
		if got := errorMessage([]byte(tt.body)); got != tt.want {
			t.Errorf("errorMessage(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}
