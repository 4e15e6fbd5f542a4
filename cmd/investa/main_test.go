package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveenspark/investa/internal/devserver"
	"github.com/naveenspark/investa/pkg/domain"
)

// setup points the CLI at a fresh fake backend and an empty data dir.
func setup(t *testing.T) *devserver.Server {
	t.Helper()
	ds := devserver.New()
	srv := httptest.NewServer(ds.Handler())
	t.Cleanup(srv.Close)

	t.Chdir(t.TempDir())
	t.Setenv("INVESTA_API_URL", srv.URL)
	t.Setenv("INVESTA_API_PREFIX", "/api")
	t.Setenv("INVESTA_WEB_URL", "http://localhost:3000")
	t.Setenv("INVESTA_DATA_DIR", t.TempDir())
	t.Setenv("INVESTA_LOG_LEVEL", "error")
	t.Setenv("INVESTA_HTTP_TIMEOUT", "5s")
	return ds
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoginWhoamiLogout(t *testing.T) {
	ds := setup(t)
	_, err := ds.AddUser("01012345678", "123456", "Lee")
	require.NoError(t, err)

	out, err := execute(t, "", "login", "--phone", "010-1234-5678", "--password", "123456")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as Lee")

	out, err = execute(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "010-****-5678")
	assert.Contains(t, out, "Customer")

	out, err = execute(t, "", "whoami", "--json")
	require.NoError(t, err)
	var u domain.User
	require.NoError(t, json.Unmarshal([]byte(out), &u))
	assert.Equal(t, "Lee", u.Name)
	assert.Equal(t, "01012345678", u.PhoneNumber)

	out, err = execute(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out.")

	_, err = execute(t, "", "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")

	out, err = execute(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Already signed out.")
}

func TestLoginPromptsForPassword(t *testing.T) {
	ds := setup(t)
	_, err := ds.AddUser("0101234567", "123456", "")
	require.NoError(t, err)

	out, err := execute(t, "123456\n", "login", "--phone", "0101234567")
	require.NoError(t, err)
	assert.Contains(t, out, "Password: ")
	assert.Contains(t, out, "Signed in as 010-1234-567")
}

func TestLoginFailures(t *testing.T) {
	ds := setup(t)
	_, err := ds.AddUser("0101234567", "123456", "")
	require.NoError(t, err)

	_, err = execute(t, "", "login", "--phone", "0101234567", "--password", "654321")
	require.Error(t, err)
	assert.Equal(t, "login failed: invalid phone number or password", err.Error())

	_, err = execute(t, "", "login", "--phone", "0101", "--password", "123456")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "10-11 digits")

	_, err = execute(t, "", "login", "--phone", "0101234567", "--password", "12ab56")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly 6 digits")

	_, err = execute(t, "", "login")
	require.Error(t, err, "--phone is required")

	_, err = execute(t, "", "whoami")
	require.Error(t, err)
}

func TestRegister(t *testing.T) {
	setup(t)

	out, err := execute(t, devserver.TestCode+"\n135790\n135790\n", "register", "--phone", "01055551234", "--name", "Choi")
	require.NoError(t, err)
	assert.Contains(t, out, "verification code sent to 010-5555-1234")
	assert.Contains(t, out, "Signed in as Choi")

	out, err = execute(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Choi")
}

func TestRegisterFailures(t *testing.T) {
	ds := setup(t)
	_, err := ds.AddUser("01099990000", "123456", "")
	require.NoError(t, err)

	tests := []struct {
		name  string
		phone string
		stdin string
		want  string
	}{
		{"wrong code", "01055551234", "000000\n", "verify code: verification code does not match"},
		{"passwords differ", "01055551234", devserver.TestCode + "\n135790\n135791\n", "passwords do not match"},
		{"short password", "01055551234", devserver.TestCode + "\n1357\n", "exactly 6 digits"},
		{"duplicate", "01099990000", devserver.TestCode + "\n135790\n135790\n", "already exists"},
		{"no input", "01055551234", "", "no input"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(t, tc.stdin, "register", "--phone", tc.phone)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLogoutServerFailure(t *testing.T) {
	ds := setup(t)
	_, err := ds.AddUser("0101234567", "123456", "")
	require.NoError(t, err)
	_, err = execute(t, "", "login", "--phone", "0101234567", "--password", "123456")
	require.NoError(t, err)

	ds.SetLogoutStatus(http.StatusInternalServerError)
	out, err := execute(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "did not confirm")

	_, err = execute(t, "", "whoami")
	require.Error(t, err, "local session must be gone even though the server refused")
}

func TestStatus(t *testing.T) {
	ds := setup(t)
	_, err := ds.AddUser("0101234567", "123456", "Han")
	require.NoError(t, err)

	out, err := execute(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "signed out")
	assert.Contains(t, out, "online")
	assert.Contains(t, out, "auth router ok")
	assert.Contains(t, out, "investa login --phone")

	_, err = execute(t, "", "login", "--phone", "0101234567", "--password", "123456")
	require.NoError(t, err)
	out, err = execute(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "signed in as Han")
	assert.Contains(t, out, "expires")
	assert.NotContains(t, out, "investa login --phone")
}

func TestStatusBackendDown(t *testing.T) {
	setup(t)
	t.Setenv("INVESTA_API_URL", "http://127.0.0.1:1")
	out, err := execute(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "unreachable")
	assert.Contains(t, out, "could not reach the server")
}

func TestEphemeralDoesNotPersist(t *testing.T) {
	ds := setup(t)
	_, err := ds.AddUser("0101234567", "123456", "")
	require.NoError(t, err)

	_, err = execute(t, "", "--ephemeral", "login", "--phone", "0101234567", "--password", "123456")
	require.NoError(t, err)
	_, err = execute(t, "", "whoami")
	require.Error(t, err)
}

func TestAPIURLFlag(t *testing.T) {
	setup(t)
	_, err := execute(t, "", "--api-url", "ftp://example.com", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api-url")
}

func TestOpen(t *testing.T) {
	setup(t)
	var opened []string
	orig := openURL
	openURL = func(u string) error {
		opened = append(opened, u)
		return nil
	}
	t.Cleanup(func() { openURL = orig })

	out, err := execute(t, "", "open", "products")
	require.NoError(t, err)
	assert.Contains(t, out, "http://localhost:3000/products")

	_, err = execute(t, "", "open")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:3000/products", "http://localhost:3000/"}, opened)

	_, err = execute(t, "", "open", "casino")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "investa dev\n", out)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("any key"))
	require.NoError(t, err)

	got, ok := tokenExpiry(signed)
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = tokenExpiry("abc")
	assert.False(t, ok, "opaque tokens have no expiry")

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "1"}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, ok = tokenExpiry(noExp)
	assert.False(t, ok)
}

func TestDescribeExpiry(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Contains(t, describeExpiry(now.Add(90*time.Minute), now), "in 1h30m0s")
	assert.Contains(t, describeExpiry(now.Add(-time.Minute), now), "expired")
}

func TestParseSeed(t *testing.T) {
	phone, password, name, err := parseSeed("01012345678:123456:Kim")
	require.NoError(t, err)
	assert.Equal(t, []string{"01012345678", "123456", "Kim"}, []string{phone, password, name})

	_, _, name, err = parseSeed("01012345678:123456")
	require.NoError(t, err)
	assert.Empty(t, name)

	for _, bad := range []string{"", "01012345678", ":123456", "01012345678:"} {
		_, _, _, err := parseSeed(bad)
		assert.Error(t, err, bad)
	}
}
