package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lborres/coupons/adapters/memory"
	"github.com/lborres/coupons/core"
	"github.com/lborres/coupons/pkg/crypto"
)

const testSecret = "test-secret-that-is-at-least-32-characters"

type captureMailer struct {
	mu   sync.Mutex
	sent []core.Email
}

func (m *captureMailer) Send(_ context.Context, e core.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, e)
	return nil
}

func (m *captureMailer) last(t *testing.T) core.Email {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no email sent")
	return m.sent[len(m.sent)-1]
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// linkToken pulls the token query parameter out of an emailed link.
func linkToken(t *testing.T, body string) string {
	t.Helper()
	_, token, ok := strings.Cut(body, "token=")
	require.True(t, ok, "no token in %q", body)
	return token
}

type testEnv struct {
	store    *memory.Store
	cache    *core.InMemoryCache
	sessions *SessionManager
	auth     *AuthService
	mailer   *captureMailer
}

func testPasswords() crypto.PasswordHandler {
	return &crypto.Argon2{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func newTestEnv(t *testing.T, cfg AuthConfig) *testEnv {
	t.Helper()

	store := memory.New()
	cache := core.NewInMemoryCache(core.CacheConfig{TTL: time.Minute, MaxSize: 100})
	sessions := NewSessionManager(core.SessionConfig{MaxAge: time.Hour}, store, cache)
	mailer := &captureMailer{}
	auth := NewAuthService(store, sessions, testPasswords(),
		WithProfiles(store),
		WithMailer(mailer),
		WithTokenIssuer(NewTokenIssuer(testSecret)),
		WithAuthConfig(cfg),
	)

	return &testEnv{store: store, cache: cache, sessions: sessions, auth: auth, mailer: mailer}
}

func (e *testEnv) signUp(t *testing.T, email, password string) *core.AuthResult {
	t.Helper()
	result, err := e.auth.SignUp(context.Background(), core.SignUpInput{Email: email, Password: password}, "127.0.0.1", "test-agent")
	require.NoError(t, err)
	return result
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}
