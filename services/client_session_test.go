package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lborres/coupons/core"
)

type eventLog struct {
	mu     sync.Mutex
	events []core.SessionEvent
	data   []*core.SessionData
}

func (l *eventLog) record(e core.SessionEvent, d *core.SessionData) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	l.data = append(l.data, d)
}

func (l *eventLog) snapshot() []core.SessionEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.SessionEvent(nil), l.events...)
}

// Requirement: a client session emits SIGNED_IN on sign-in and SIGNED_OUT on sign-out.
func TestClientSession_SignInSignOut(t *testing.T) {
	// Arrange
	env := newTestEnv(t, AuthConfig{})
	env.signUp(t, "alice@example.com", "SecurePass123!")
	ctx := context.Background()

	cs := NewClientSession(env.auth, "", "127.0.0.1", "agent")
	defer cs.Close()
	log := &eventLog{}
	cs.OnChange(log.record)

	// Act
	_, err := cs.SignIn(ctx, "alice@example.com", "SecurePass123!")
	require.NoError(t, err)
	data, err := cs.GetSession(ctx)
	require.NoError(t, err)
	require.NoError(t, cs.SignOut(ctx))

	// Assert
	assert.Equal(t, "alice@example.com", data.User.Email)
	assert.Equal(t, []core.SessionEvent{core.EventSignedIn, core.EventSignedOut}, log.snapshot())
	assert.Empty(t, cs.Token())

	data, err = cs.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)
}

// Requirement: failed sign-in emits nothing and leaves the client signed out.
func TestClientSession_SignIn_InvalidCredentials(t *testing.T) {
	// Arrange
	env := newTestEnv(t, AuthConfig{})
	env.signUp(t, "alice@example.com", "SecurePass123!")
	cs := NewClientSession(env.auth, "", "", "")
	defer cs.Close()
	log := &eventLog{}
	cs.OnChange(log.record)

	// Act
	_, err := cs.SignIn(context.Background(), "alice@example.com", "nope-nope-nope")

	// Assert
	require.ErrorIs(t, err, core.ErrInvalidCredentials)
	assert.Empty(t, log.snapshot())
	assert.Empty(t, cs.Token())
}

// Requirement: signing out a token the server already forgot still counts as signed out.
func TestClientSession_SignOut_GoneSession(t *testing.T) {
	// Arrange
	env := newTestEnv(t, AuthConfig{})
	result := env.signUp(t, "alice@example.com", "SecurePass123!")
	ctx := context.Background()
	require.NoError(t, env.auth.SignOut(ctx, result.Token))

	cs := NewClientSession(env.auth, result.Token, "", "")
	defer cs.Close()
	log := &eventLog{}
	cs.OnChange(log.record)

	// Act
	err := cs.SignOut(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []core.SessionEvent{core.EventSignedOut}, log.snapshot())
	require.ErrorIs(t, cs.SignOut(ctx), core.ErrNoSession)
}

// Requirement: Refresh swaps the held token and emits TOKEN_REFRESHED.
func TestClientSession_Refresh(t *testing.T) {
	// Arrange
	env := newTestEnv(t, AuthConfig{})
	result := env.signUp(t, "alice@example.com", "SecurePass123!")
	cs := NewClientSession(env.auth, result.Token, "", "")
	defer cs.Close()
	log := &eventLog{}
	cs.OnChange(log.record)

	// Act
	refreshed, err := cs.Refresh(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, refreshed.Token, cs.Token())
	assert.NotEqual(t, result.Token, cs.Token())
	assert.Equal(t, []core.SessionEvent{core.EventTokenRefreshed}, log.snapshot())
}

// Requirement: a password reset elsewhere signs this client out; unrelated users are ignored.
func TestClientSession_RemoteSignOut(t *testing.T) {
	// Arrange
	env := newTestEnv(t, AuthConfig{})
	alice := env.signUp(t, "alice@example.com", "SecurePass123!")
	bob := env.signUp(t, "bob@example.com", "SecurePass123!")
	ctx := context.Background()

	aliceClient := NewClientSession(env.auth, alice.Token, "", "")
	defer aliceClient.Close()
	bobClient := NewClientSession(env.auth, bob.Token, "", "")
	defer bobClient.Close()
	_, err := aliceClient.GetSession(ctx)
	require.NoError(t, err)
	_, err = bobClient.GetSession(ctx)
	require.NoError(t, err)

	aliceLog, bobLog := &eventLog{}, &eventLog{}
	aliceClient.OnChange(aliceLog.record)
	bobClient.OnChange(bobLog.record)

	// Act
	require.NoError(t, env.auth.RequestPasswordReset(ctx, "alice@example.com"))
	require.NoError(t, env.auth.ResetPassword(ctx, linkToken(t, env.mailer.last(t).Body), "BrandNew789!"))

	// Assert
	assert.Equal(t, []core.SessionEvent{core.EventSignedOut}, aliceLog.snapshot())
	assert.Empty(t, aliceClient.Token())
	assert.Empty(t, bobLog.snapshot())
	assert.Equal(t, bob.Token, bobClient.Token())
}

// Requirement: UpdatePassword reaches the client as USER_UPDATED; Close stops notifications.
func TestClientSession_UserUpdatedAndClose(t *testing.T) {
	// Arrange
	env := newTestEnv(t, AuthConfig{})
	result := env.signUp(t, "alice@example.com", "SecurePass123!")
	ctx := context.Background()
	cs := NewClientSession(env.auth, result.Token, "", "")
	_, err := cs.GetSession(ctx)
	require.NoError(t, err)
	log := &eventLog{}
	cs.OnChange(log.record)

	// Act
	require.NoError(t, cs.UpdatePassword(ctx, "EvenBetter456!"))
	cs.Close()
	require.NoError(t, env.auth.UpdatePassword(ctx, result.Token, "AndAgain789!"))

	// Assert
	assert.Equal(t, []core.SessionEvent{core.EventUserUpdated}, log.snapshot())
	assert.Equal(t, 0, env.auth.Notifier().Len())
}
