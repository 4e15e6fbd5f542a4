// Package devserver is an in-memory stand-in for the storefront auth backend.
// It serves the same routes and JSON shapes so the client can be developed and
// tested without the real service. SMS delivery is simulated: every code is
// TestCode.
package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/naveenspark/investa/internal/logging"
	"github.com/naveenspark/investa/pkg/domain"
)

// TestCode is the verification code accepted for every phone number.
const TestCode = "123456"

const issuer = "investa-devserver"

type account struct {
	user domain.User
	hash []byte
}

// Server holds the fake backend state.
type Server struct {
	prefix string
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu           sync.Mutex
	accounts     map[string]*account // by phone number
	byID         map[int64]*account
	verified     map[string]bool
	revoked      map[string]bool // token IDs
	nextID       int64
	logoutStatus int
}

// Option configures a Server.
type Option func(*Server)

// WithPrefix sets the route prefix (default /api).
func WithPrefix(prefix string) Option {
	return func(s *Server) { s.prefix = prefix }
}

// WithTokenTTL sets the lifetime of issued tokens (default 1h).
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.ttl = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates an empty fake backend.
func New(opts ...Option) *Server {
	s := &Server{
		prefix:   "/api",
		secret:   []byte(uuid.NewString()),
		ttl:      time.Hour,
		now:      time.Now,
		logger:   logging.Discard(),
		accounts: make(map[string]*account),
		byID:     make(map[int64]*account),
		verified: make(map[string]bool),
		revoked:  make(map[string]bool),
		nextID:   1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetLogoutStatus makes POST /auth/logout answer with code. Zero restores
// normal behaviour.
func (s *Server) SetLogoutStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logoutStatus = code
}

// AddUser registers an account directly, skipping SMS verification.
func (s *Server) AddUser(phone, password, name string) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("devserver.AddUser: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[phone]; ok {
		return domain.User{}, fmt.Errorf("devserver.AddUser: %s already registered", phone)
	}
	return s.createLocked(phone, name, hash).user, nil
}

// Handler returns the chi router serving /health and the auth routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route(s.prefix+"/auth", func(r chi.Router) {
		r.Post("/send-sms", s.sendSMS)
		r.Post("/verify-sms", s.verifySMS)
		r.Post("/register", s.register)
		r.Post("/login", s.login)
		r.Get("/me", s.me)
		r.Post("/logout", s.logout)
		r.Get("/test", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, domain.APIResponse{Success: true, Message: "auth router ok"})
		})
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("devserver.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", r.Header.Get("X-Request-ID"),
			"duration", time.Since(start),
		)
	})
}

type phoneRequest struct {
	PhoneNumber      string `json:"phone_number"`
	VerificationCode string `json:"verification_code"`
	Password         string `json:"password"`
	UserName         string `json:"user_name"`
}

func (s *Server) sendSMS(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if !decode(w, r, &req) {
		return
	}
	if err := domain.ValidatePhone(req.PhoneNumber); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, domain.APIResponse{
		Success: true,
		Message: fmt.Sprintf("verification code sent to %s", domain.FormatPhone(req.PhoneNumber)),
	})
}

func (s *Server) verifySMS(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if !decode(w, r, &req) {
		return
	}
	if req.VerificationCode != TestCode {
		writeMessage(w, http.StatusBadRequest, "verification code does not match")
		return
	}
	s.mu.Lock()
	s.verified[req.PhoneNumber] = true
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, domain.APIResponse{Success: true, Message: "phone number verified"})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if !decode(w, r, &req) {
		return
	}
	if err := domain.ValidatePhone(req.PhoneNumber); err != nil {
		writeMessage(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		writeMessage(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "could not store password")
		return
	}

	s.mu.Lock()
	if !s.verified[req.PhoneNumber] {
		s.mu.Unlock()
		writeMessage(w, http.StatusBadRequest, "phone number has not been verified")
		return
	}
	if _, ok := s.accounts[req.PhoneNumber]; ok {
		s.mu.Unlock()
		writeMessage(w, http.StatusConflict, "an account with this phone number already exists")
		return
	}
	acct := s.createLocked(req.PhoneNumber, strings.TrimSpace(req.UserName), hash)
	delete(s.verified, req.PhoneNumber)
	s.mu.Unlock()

	s.writeLogin(w, http.StatusCreated, acct.user)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	acct, ok := s.accounts[req.PhoneNumber]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acct.hash, []byte(req.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "invalid phone number or password")
		return
	}
	if !acct.user.Active {
		writeMessage(w, http.StatusForbidden, "account is disabled")
		return
	}
	s.writeLogin(w, http.StatusOK, acct.user)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	acct, _, err := s.authenticate(r)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, acct.user)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	forced := s.logoutStatus
	s.mu.Unlock()
	if forced != 0 {
		writeMessage(w, forced, "logout unavailable")
		return
	}
	_, jti, err := s.authenticate(r)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, err.Error())
		return
	}
	s.mu.Lock()
	s.revoked[jti] = true
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, domain.APIResponse{Success: true, Message: "logged out"})
}

// createLocked stores a new active customer account. s.mu must be held.
func (s *Server) createLocked(phone, name string, hash []byte) *account {
	acct := &account{
		user: domain.User{
			ID:          s.nextID,
			PhoneNumber: phone,
			Name:        name,
			Type:        domain.UserTypeCustomer,
			KYCStatus:   domain.KYCPending,
			Active:      true,
			CreatedAt:   s.now().UTC().Format("2006-01-02T15:04:05"),
		},
		hash: hash,
	}
	s.nextID++
	s.accounts[phone] = acct
	s.byID[acct.user.ID] = acct
	return acct
}

func (s *Server) writeLogin(w http.ResponseWriter, status int, user domain.User) {
	token, err := s.issue(user.ID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, status, domain.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.ttl.Seconds()),
		User:        user,
	})
}

func (s *Server) issue(userID int64) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strconv.FormatInt(userID, 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

var errUnauthenticated = errors.New("not authenticated")

// authenticate resolves the bearer token to an account and returns its token ID.
func (s *Server) authenticate(r *http.Request) (*account, string, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return nil, "", errUnauthenticated
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, "", errors.New("token expired")
		}
		return nil, "", errors.New("invalid token")
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, "", errors.New("invalid token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked[claims.ID] {
		return nil, "", errors.New("token revoked")
	}
	acct, ok := s.byID[id]
	if !ok {
		return nil, "", errors.New("user not found")
	}
	return acct, claims.ID, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, domain.APIResponse{Success: false, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort write
}
