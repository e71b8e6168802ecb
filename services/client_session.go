package services

import (
	"context"
	"errors"
	"sync"

	"github.com/lborres/coupons/core"
)

// ClientSession is the session store as seen by one client: it holds that
// client's token and tells its listeners when the session changes, whether
// the change came from this client or from the auth service.
type ClientSession struct {
	auth      *AuthService
	ipAddress string
	userAgent string

	mu        sync.Mutex
	token     string
	userID    string
	listeners map[int]func(core.SessionEvent, *core.SessionData)
	next      int

	unsubscribe func()
}

func NewClientSession(auth *AuthService, token, ipAddress, userAgent string) *ClientSession {
	cs := &ClientSession{
		auth:      auth,
		token:     token,
		ipAddress: ipAddress,
		userAgent: userAgent,
		listeners: make(map[int]func(core.SessionEvent, *core.SessionData)),
	}
	cs.unsubscribe = auth.Notifier().Subscribe(cs.onServiceChange)
	return cs
}

func (cs *ClientSession) Token() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.token
}

// SetClient records where the client currently connects from; used for new sessions.
func (cs *ClientSession) SetClient(ipAddress, userAgent string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.ipAddress, cs.userAgent = ipAddress, userAgent
}

// GetSession returns the current session, or nil when the client holds no token.
func (cs *ClientSession) GetSession(ctx context.Context) (*core.SessionData, error) {
	token := cs.Token()
	if token == "" {
		return nil, nil
	}

	data, err := cs.auth.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}

	cs.mu.Lock()
	cs.userID = data.User.ID
	cs.mu.Unlock()
	return data, nil
}

func (cs *ClientSession) SignIn(ctx context.Context, email, password string) (*core.AuthResult, error) {
	ip, ua := cs.client()
	result, err := cs.auth.SignIn(ctx, core.SignInInput{Email: email, Password: password}, ip, ua)
	if err != nil {
		return nil, err
	}
	cs.adopt(core.EventSignedIn, result)
	return result, nil
}

// SignUp registers and, unless confirmation is required, signs the client in.
func (cs *ClientSession) SignUp(ctx context.Context, input core.SignUpInput) (*core.AuthResult, error) {
	ip, ua := cs.client()
	result, err := cs.auth.SignUp(ctx, input, ip, ua)
	if err != nil {
		return nil, err
	}
	if result.Token != "" {
		cs.adopt(core.EventSignedIn, result)
	}
	return result, nil
}

// SignOut revokes the token. A token the server no longer knows counts as signed out.
func (cs *ClientSession) SignOut(ctx context.Context) error {
	token := cs.Token()
	if token == "" {
		return core.ErrNoSession
	}

	err := cs.auth.SignOut(ctx, token)
	if err != nil && !isGoneSession(err) {
		return err
	}

	cs.clear()
	cs.emit(core.EventSignedOut, nil)
	return nil
}

func (cs *ClientSession) Refresh(ctx context.Context) (*core.AuthResult, error) {
	token := cs.Token()
	if token == "" {
		return nil, core.ErrNoSession
	}

	result, err := cs.auth.Refresh(ctx, token)
	if err != nil {
		return nil, err
	}
	cs.adopt(core.EventTokenRefreshed, result)
	return result, nil
}

func (cs *ClientSession) UpdatePassword(ctx context.Context, password string) error {
	token := cs.Token()
	if token == "" {
		return core.ErrNoSession
	}
	// the notifier reports USER_UPDATED back to this client too
	return cs.auth.UpdatePassword(ctx, token, password)
}

// OnChange registers fn for session changes. Calls happen synchronously on the
// goroutine that caused the change.
func (cs *ClientSession) OnChange(fn func(core.SessionEvent, *core.SessionData)) (unsubscribe func()) {
	cs.mu.Lock()
	id := cs.next
	cs.next++
	cs.listeners[id] = fn
	cs.mu.Unlock()

	return func() {
		cs.mu.Lock()
		delete(cs.listeners, id)
		cs.mu.Unlock()
	}
}

// Close detaches from the auth service notifications.
func (cs *ClientSession) Close() {
	cs.unsubscribe()
}

func (cs *ClientSession) onServiceChange(change core.SessionChange) {
	cs.mu.Lock()
	mine := cs.userID != "" && cs.userID == change.UserID
	cs.mu.Unlock()
	if !mine {
		return
	}

	switch change.Event {
	case core.EventSignedOut:
		cs.clear()
		cs.emit(core.EventSignedOut, nil)
	case core.EventUserUpdated:
		if change.User != nil {
			cs.emit(core.EventUserUpdated, &core.SessionData{User: change.User})
		}
	}
}

func (cs *ClientSession) adopt(event core.SessionEvent, result *core.AuthResult) {
	cs.mu.Lock()
	cs.token = result.Token
	cs.userID = result.User.ID
	cs.mu.Unlock()

	cs.emit(event, &core.SessionData{User: result.User, Session: result.Session})
}

func (cs *ClientSession) clear() {
	cs.mu.Lock()
	cs.token = ""
	cs.userID = ""
	cs.mu.Unlock()
}

func (cs *ClientSession) client() (string, string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.ipAddress, cs.userAgent
}

func (cs *ClientSession) emit(event core.SessionEvent, data *core.SessionData) {
	cs.mu.Lock()
	fns := make([]func(core.SessionEvent, *core.SessionData), 0, len(cs.listeners))
	for _, fn := range cs.listeners {
		fns = append(fns, fn)
	}
	cs.mu.Unlock()

	for _, fn := range fns {
		fn(event, data)
	}
}

func isGoneSession(err error) bool {
	return errors.Is(err, core.ErrSessionNotFound) ||
		errors.Is(err, core.ErrInvalidToken) ||
		errors.Is(err, core.ErrSessionExpired)
}
