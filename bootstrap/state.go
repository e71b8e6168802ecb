// Package bootstrap owns the per-client auth state: who is signed in, their
// profile, and whether either is still loading. A Controller is the only
// writer of that state; everything else reads snapshots or subscribes.
package bootstrap

import "github.com/lborres/coupons/core"

// Status is the coarse bootstrap state machine:
//
//	uninitialized -> loading -> authenticated -> ready
//	                         \-> unauthenticated
type Status string

const (
	StatusUninitialized   Status = "uninitialized"
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated" // user known, profile loading
	StatusReady           Status = "ready"
	StatusUnauthenticated Status = "unauthenticated"
)

// Phase tracks one profile load.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseFetching Phase = "fetching"
	PhaseRetrying Phase = "retrying"
	PhaseCreating Phase = "creating"
	PhaseResolved Phase = "resolved"
	PhaseFailed   Phase = "failed"
)

// State is an immutable snapshot. Profile and User are never mutated after
// being published; a change publishes new values.
type State struct {
	User           *core.User    `json:"user"`
	Profile        *core.Profile `json:"profile"`
	Loading        bool          `json:"loading"`
	ProfileLoading bool          `json:"profileLoading"`

	Status       Status `json:"status"`
	ProfilePhase Phase  `json:"profilePhase"`
	// Attempt is the retry number while ProfilePhase is retrying.
	Attempt int `json:"attempt,omitempty"`
}

// Resolved reports whether the session part of the state is settled.
func (s State) Resolved() bool {
	return s.Status != StatusUninitialized && s.Status != StatusLoading
}

// Authenticated reports whether a user is signed in.
func (s State) Authenticated() bool {
	return s.User != nil
}

// IsAdmin is true only when the profile resolved with the admin flag.
func (s State) IsAdmin() bool {
	return s.Profile != nil && s.Profile.IsAdmin
}

// Result is what SignIn and SignUp hand back. The state itself changes
// through the session change that follows, never through the Result.
type Result struct {
	Data *core.AuthResult
	Err  error
}
