package services

import (
	"fmt"

	"github.com/lborres/coupons/core"
)

func endpoint(method, path string, access core.Access, opID, desc string) core.Endpoint {
	return core.Endpoint{
		Path:   path,
		Method: method,
		Access: access,
		Metadata: core.EndpointMetadata{
			OperationID: opID,
			Description: desc,
		},
	}
}

// BaseEndpoints returns framework-agnostic endpoint specifications for the
// whole API, relative to the API base path.
//
// Adapters bind their own handler to each OperationID and put the guard
// named by Access in front of it.
func BaseEndpoints() []core.Endpoint {
	signIn := endpoint("POST", "/auth/sign-in", core.AccessPublic, "signInWithEmailAndPassword", "Sign in a user using email and password")
	signIn.Metadata.RateLimited = true
	recovery := endpoint("POST", "/auth/recover", core.AccessPublic, "requestPasswordReset", "Email a password recovery link")
	recovery.Metadata.RateLimited = true

	return []core.Endpoint{
		endpoint("GET", "/health", core.AccessPublic, "health", "Liveness check"),
		endpoint("GET", "/plans", core.AccessPublic, "listPlans", "Subscription plans, prices and payment numbers"),
		endpoint("GET", "/bookmakers", core.AccessPublic, "listBookmakers", "Partner bookmakers and their promo code"),
		endpoint("GET", "/matches/today", core.AccessPublic, "todayMatches", "Matches of the day"),

		// auth
		endpoint("POST", "/auth/sign-up", core.AccessPublic, "signUpWithEmailAndPassword", "Sign up a user using email and password"),
		signIn,
		endpoint("POST", "/auth/sign-out", core.AccessPublic, "signOut", "Sign out the current user and invalidate the session"),
		endpoint("GET", "/auth/session", core.AccessPublic, "getSession", "Get the current user's session data"),
		endpoint("POST", "/auth/refresh", core.AccessPublic, "refreshToken", "Rotate the session token"),
		endpoint("GET", "/auth/confirm", core.AccessPublic, "confirmEmail", "Confirm an email address from an emailed link"),
		recovery,
		endpoint("POST", "/auth/reset", core.AccessPublic, "resetPassword", "Set a new password from a recovery link"),
		endpoint("POST", "/auth/password", core.AccessAuth, "updatePassword", "Change the current user's password"),

		// signed-in users
		endpoint("GET", "/dashboard", core.AccessAuth, "getDashboard", "Subscription status, matches and predictions of the day"),
		endpoint("GET", "/profile", core.AccessAuth, "getProfile", "Get the current user's profile"),
		endpoint("PATCH", "/profile", core.AccessAuth, "updateProfile", "Change the current user's display name"),
		endpoint("GET", "/predictions", core.AccessAuth, "listPredictions", "Predictions visible to the current user"),
		endpoint("GET", "/payments", core.AccessAuth, "listPayments", "The current user's payment requests"),
		endpoint("POST", "/payments", core.AccessAuth, "submitPayment", "Submit a mobile money payment with its screenshot"),
		endpoint("GET", "/promo-codes", core.AccessAuth, "listPromoCodes", "The current user's promo code requests"),
		endpoint("POST", "/promo-codes", core.AccessAuth, "requestPromoCode", "Ask for a personalised promo code"),

		// admin
		endpoint("GET", "/admin/stats", core.AccessAdmin, "adminStats", "Back-office counters"),
		endpoint("GET", "/admin/matches", core.AccessAdmin, "adminListMatches", "List every match"),
		endpoint("POST", "/admin/matches", core.AccessAdmin, "adminCreateMatch", "Create a match"),
		endpoint("PUT", "/admin/matches/:id", core.AccessAdmin, "adminUpdateMatch", "Update a match"),
		endpoint("DELETE", "/admin/matches/:id", core.AccessAdmin, "adminDeleteMatch", "Delete a match"),
		endpoint("GET", "/admin/predictions", core.AccessAdmin, "adminListPredictions", "List every prediction"),
		endpoint("POST", "/admin/predictions", core.AccessAdmin, "adminCreatePrediction", "Create a prediction"),
		endpoint("PUT", "/admin/predictions/:id", core.AccessAdmin, "adminUpdatePrediction", "Update a prediction"),
		endpoint("DELETE", "/admin/predictions/:id", core.AccessAdmin, "adminDeletePrediction", "Delete a prediction"),
		endpoint("GET", "/admin/payments", core.AccessAdmin, "adminListPayments", "List payment requests"),
		endpoint("POST", "/admin/payments/:id/approve", core.AccessAdmin, "adminApprovePayment", "Approve a payment and grant the plan"),
		endpoint("POST", "/admin/payments/:id/reject", core.AccessAdmin, "adminRejectPayment", "Reject a payment"),
		endpoint("GET", "/admin/users", core.AccessAdmin, "adminListUsers", "List user profiles"),
		endpoint("PATCH", "/admin/users/:id", core.AccessAdmin, "adminUpdateUser", "Edit a user's subscription or admin flag"),
		endpoint("GET", "/admin/promo-codes", core.AccessAdmin, "adminListPromoCodes", "List promo code requests"),
		endpoint("POST", "/admin/promo-codes/:id/approve", core.AccessAdmin, "adminApprovePromoCode", "Approve a promo code request"),
		endpoint("POST", "/admin/promo-codes/:id/reject", core.AccessAdmin, "adminRejectPromoCode", "Reject a promo code request"),
	}
}

// EndpointRegistry manages a collection of framework-agnostic endpoints
// and handles conflict detection for duplicate METHOD:PATH combinations.
type EndpointRegistry struct {
	// endpoints stores all registered endpoints keyed by "METHOD:PATH"
	endpoints map[string]*core.Endpoint
	// order keeps registration order so routes mount deterministically
	order []string
}

// NewEndpointRegistry creates a new registry with all base endpoints
// pre-registered.
func NewEndpointRegistry() *EndpointRegistry {
	reg := &EndpointRegistry{
		endpoints: make(map[string]*core.Endpoint),
	}

	base := BaseEndpoints()
	for i := range base {
		if err := reg.register(&base[i]); err != nil {
			panic(err)
		}
	}

	return reg
}

func endpointKey(ep *core.Endpoint) string {
	return fmt.Sprintf("%s:%s", ep.Method, ep.Path)
}

// register adds a single endpoint to the registry with conflict detection.
// Returns error if an endpoint with the same METHOD:PATH already exists.
func (r *EndpointRegistry) register(ep *core.Endpoint) error {
	key := endpointKey(ep)

	if _, exists := r.endpoints[key]; exists {
		return fmt.Errorf("endpoint conflict: %s %s already registered", ep.Method, ep.Path)
	}

	r.endpoints[key] = ep
	r.order = append(r.order, key)
	return nil
}

// RegisterPlugin registers additional endpoints to the registry.
// Returns error if any endpoint conflicts with existing endpoints
// or with other endpoints in the same batch.
//
// If an error occurs, no endpoints from the batch are registered.
func (r *EndpointRegistry) RegisterPlugin(endpoints []core.Endpoint) error {
	seen := make(map[string]bool)
	for i := range endpoints {
		ep := &endpoints[i]
		key := endpointKey(ep)

		if _, exists := r.endpoints[key]; exists {
			return fmt.Errorf("plugin endpoint conflict: %s %s already registered", ep.Method, ep.Path)
		}
		if seen[key] {
			return fmt.Errorf("plugin contains duplicate endpoint: %s %s", ep.Method, ep.Path)
		}
		seen[key] = true
	}

	for i := range endpoints {
		ep := endpoints[i]
		r.endpoints[endpointKey(&ep)] = &ep
		r.order = append(r.order, endpointKey(&ep))
	}

	return nil
}

// Endpoints returns all registered endpoints in registration order.
func (r *EndpointRegistry) Endpoints() []*core.Endpoint {
	result := make([]*core.Endpoint, 0, len(r.order))
	for _, key := range r.order {
		result = append(result, r.endpoints[key])
	}
	return result
}
