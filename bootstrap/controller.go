package bootstrap

import (
	"context"
	"errors"
	"sync"

	"github.com/gofiber/fiber/v3/log"

	"github.com/lborres/coupons/core"
)

var ErrClosed = errors.New("controller closed")

// SessionSource is the identity provider as one client sees it.
// services.ClientSession implements it.
type SessionSource interface {
	GetSession(ctx context.Context) (*core.SessionData, error)
	SignIn(ctx context.Context, email, password string) (*core.AuthResult, error)
	SignUp(ctx context.Context, input core.SignUpInput) (*core.AuthResult, error)
	SignOut(ctx context.Context) error
	OnChange(fn func(core.SessionEvent, *core.SessionData)) (unsubscribe func())
}

// Controller drives the auth state of one client from its session source.
// State writes happen under mu only, session changes are handled one at a
// time, and profile results that no longer match the published user are
// dropped.
type Controller struct {
	source SessionSource
	loader *ProfileLoader

	// events serializes session change handling
	events sync.Mutex

	mu          sync.Mutex
	state       State
	changed     chan struct{}
	subs        map[int]chan State
	nextSub     int
	gen         uint64 // bumped by every session change
	loadSeq     uint64 // bumped by every profile load started
	loadCancel  context.CancelFunc
	initialized bool
	closed      bool

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	loads       sync.WaitGroup
}

func NewController(source SessionSource, loader *ProfileLoader) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		source:  source,
		loader:  loader,
		state:   State{Status: StatusUninitialized, ProfilePhase: PhaseIdle},
		changed: make(chan struct{}),
		subs:    make(map[int]chan State),
		ctx:     ctx,
		cancel:  cancel,
	}
	c.unsubscribe = source.OnChange(c.onSessionChange)
	return c
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe returns a channel that always holds the latest state. Slow
// readers skip intermediate states.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan State, 1)
	ch <- c.state
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// Initialize reads the current session once. Any failure, including a
// transport error, settles the state as unauthenticated.
func (c *Controller) Initialize(ctx context.Context) {
	c.mu.Lock()
	if c.initialized || c.closed {
		c.mu.Unlock()
		return
	}
	c.initialized = true
	c.state.Loading = true
	c.state.Status = StatusLoading
	startGen := c.gen
	c.publishLocked()
	c.mu.Unlock()

	data, err := c.source.GetSession(ctx)
	if err != nil {
		log.Debugw("initial session unavailable", "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.gen != startGen {
		// a session change already settled the state
		return
	}

	if err != nil || data == nil || data.User == nil {
		c.setSignedOutLocked()
	} else {
		c.state.User = data.User
		c.state.Loading = false
		c.startProfileLoadLocked(data.User)
	}
	c.publishLocked()
}

// onSessionChange publishes the new user right away and loads or clears
// the profile to match.
func (c *Controller) onSessionChange(event core.SessionEvent, data *core.SessionData) {
	c.events.Lock()
	defer c.events.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	var user *core.User
	if data != nil {
		user = data.User
	}
	prev := c.state.User

	c.gen++
	c.initialized = true

	switch {
	case user == nil:
		c.setSignedOutLocked()
	case prev == nil || prev.ID != user.ID:
		c.state.User = user
		c.state.Loading = false
		c.state.Profile = nil
		c.startProfileLoadLocked(user)
	default:
		// same user: token refresh or metadata update, the profile stands
		c.state.User = user
		c.state.Loading = false
		if c.state.Profile == nil && !c.state.ProfileLoading {
			c.startProfileLoadLocked(user)
		}
	}

	log.Debugw("session change", "event", event, "status", c.state.Status)
	c.publishLocked()
}

// SignIn delegates to the session source. The state is updated by the
// SIGNED_IN change the source emits, not here.
func (c *Controller) SignIn(ctx context.Context, email, password string) Result {
	res, err := c.source.SignIn(ctx, email, password)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Data: res}
}

// SignUp delegates to the session source. When confirmation is required
// no session exists yet and nothing is loaded.
func (c *Controller) SignUp(ctx context.Context, email, password, displayName string) Result {
	res, err := c.source.SignUp(ctx, core.SignUpInput{Email: email, Password: password, Name: displayName})
	if err != nil {
		return Result{Err: err}
	}
	return Result{Data: res}
}

func (c *Controller) SignOut(ctx context.Context) error {
	return c.source.SignOut(ctx)
}

// ReloadProfile re-runs the profile load for the published user and waits
// for it to settle.
func (c *Controller) ReloadProfile(ctx context.Context) (State, error) {
	c.mu.Lock()
	if c.closed {
		st := c.state
		c.mu.Unlock()
		return st, ErrClosed
	}
	user := c.state.User
	if user == nil {
		st := c.state
		c.mu.Unlock()
		return st, core.ErrNoSession
	}
	c.loader.Forget(user.ID)
	c.startProfileLoadLocked(user)
	c.publishLocked()
	c.mu.Unlock()

	return c.WaitProfile(ctx)
}

// WaitReady blocks until the session part of the state is settled.
func (c *Controller) WaitReady(ctx context.Context) (State, error) {
	return c.waitFor(ctx, State.Resolved)
}

// WaitProfile blocks until the state is settled and no profile load runs.
func (c *Controller) WaitProfile(ctx context.Context) (State, error) {
	return c.waitFor(ctx, func(s State) bool {
		return s.Resolved() && !s.ProfileLoading
	})
}

func (c *Controller) waitFor(ctx context.Context, done func(State) bool) (State, error) {
	for {
		c.mu.Lock()
		st, changed, closed := c.state, c.changed, c.closed
		c.mu.Unlock()

		if done(st) {
			return st, nil
		}
		if closed {
			return st, ErrClosed
		}

		select {
		case <-ctx.Done():
			return st, context.Cause(ctx)
		case <-changed:
		}
	}
}

// Closed reports whether Close has run. A closed controller keeps its last
// state but no longer follows the session.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close stops listening to the source and cancels running loads, including
// their pending retry timers. Nothing is written to the state afterwards.
func (c *Controller) Close() {
	c.unsubscribe()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cancel()
	close(c.changed)
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.mu.Unlock()

	c.loads.Wait()
}

func (c *Controller) setSignedOutLocked() {
	if c.loadCancel != nil {
		c.loadCancel()
		c.loadCancel = nil
	}
	c.loadSeq++
	c.state = State{
		Status:       StatusUnauthenticated,
		ProfilePhase: PhaseIdle,
	}
}

func (c *Controller) startProfileLoadLocked(user *core.User) {
	if c.loadCancel != nil {
		c.loadCancel()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.loadCancel = cancel
	c.loadSeq++
	seq := c.loadSeq

	c.state.ProfileLoading = true
	c.state.ProfilePhase = PhaseFetching
	c.state.Attempt = 0
	c.state.Status = StatusAuthenticated

	c.loads.Add(1)
	go func() {
		defer c.loads.Done()
		defer cancel()

		p, err := c.loader.Load(ctx, user, func(phase Phase, attempt int) {
			c.progress(seq, phase, attempt)
		})
		c.finishLoad(seq, user, p, err)
	}()
}

func (c *Controller) progress(seq uint64, phase Phase, attempt int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || seq != c.loadSeq {
		return
	}
	c.state.ProfilePhase = phase
	c.state.Attempt = attempt
	c.publishLocked()
}

func (c *Controller) finishLoad(seq uint64, user *core.User, p *core.Profile, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || seq != c.loadSeq || c.state.User == nil || c.state.User.ID != user.ID {
		// stale: the user changed or a newer load replaced this one
		return
	}

	if err != nil {
		log.Warnw("profile load failed", "user_id", user.ID, "error", err)
		c.state.Profile = nil
		c.state.ProfilePhase = PhaseFailed
	} else {
		c.state.Profile = p
		c.state.ProfilePhase = PhaseResolved
	}
	c.state.ProfileLoading = false
	c.state.Attempt = 0
	c.state.Status = StatusReady
	c.loadCancel = nil
	c.publishLocked()
}

// publishLocked wakes waiters and hands the new state to subscribers.
func (c *Controller) publishLocked() {
	if c.closed {
		return
	}
	close(c.changed)
	c.changed = make(chan struct{})

	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- c.state
	}
}
