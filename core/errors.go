package core

import "errors"

// Authentication Related Errors
var (
	// User errors
	ErrUserExists         = errors.New("user already exists")         // 409 Conflict
	ErrUserNotFound       = errors.New("user not found")              // 404 Not Found
	ErrInvalidCredentials = errors.New("invalid email or password")   // 401 Unauthorized
	ErrEmailNotConfirmed  = errors.New("email address not confirmed") // 403 Forbidden
)

// Session errors
var (
	ErrMissingAuthHeader = errors.New("missing authorization header") // 401
	ErrInvalidToken      = errors.New("invalid session token")        // 401
	ErrSessionNotFound   = errors.New("session not found")            // 401
	ErrSessionExpired    = errors.New("session expired")              // 401
	ErrNoSession         = errors.New("no active session")            // 401
	ErrCacheNotFound     = errors.New("entry not found in cache")
)

// Access errors
var (
	ErrUnauthenticated = errors.New("authentication required") // 401
	ErrForbidden       = errors.New("admin access required")   // 403
)

// Validation errors (client input)
var (
	ErrInvalidAuthHeader = errors.New("invalid authorization format, expected 'Bearer <token>'") // 401
	ErrEmailRequired     = errors.New("email is required")                                       // 400
	ErrPasswordRequired  = errors.New("password is required")                                    // 400
	ErrPasswordTooShort  = errors.New("password is too short")                                   // 400
	ErrPasswordTooLong   = errors.New("password is too long")                                    // 400
	ErrInvalidEmail      = errors.New("invalid email format")                                    // 400
	ErrDisplayNameLength = errors.New("display name must be between 1 and 100 characters")       // 400
)

// Subscription & payment errors
var (
	ErrInvalidPlan          = errors.New("invalid subscription plan")                         // 400
	ErrInvalidDuration      = errors.New("duration must be monthly or annual")                // 400
	ErrInvalidPaymentMethod = errors.New("payment method must be orange_money or moov_money") // 400
	ErrAmountMismatch       = errors.New("amount does not match the plan price")              // 400
	ErrScreenshotRequired   = errors.New("payment screenshot is required")                    // 400
	ErrScreenshotTooLarge   = errors.New("screenshot must not exceed 5MB")                    // 413
	ErrScreenshotType       = errors.New("screenshot must be an image")                       // 415
	ErrInvalidStatus        = errors.New("invalid status filter")                             // 400
	ErrPaymentNotFound      = errors.New("payment request not found")                         // 404
	ErrPaymentDecided       = errors.New("payment request has already been decided")          // 409
)

// Profile errors
var (
	// Recovered locally by the bootstrap flow; never surfaced to clients.
	ErrProfileNotFound = errors.New("profile not found")         // 404
	ErrInvalidTier     = errors.New("invalid subscription tier") // 400
)

// Catalog errors
var (
	ErrMatchNotFound      = errors.New("match not found")                        // 404
	ErrPredictionNotFound = errors.New("prediction not found")                   // 404
	ErrMatchTeamsRequired = errors.New("home and away teams are required")       // 400
	ErrMatchDateRequired  = errors.New("match date is required")                 // 400
	ErrInvalidMatchStatus = errors.New("invalid match status")                   // 400
	ErrInvalidPrediction  = errors.New("prediction type and value are required") // 400
	ErrInvalidConfidence  = errors.New("confidence must be standard or vip")     // 400
	ErrInvalidResult      = errors.New("result must be pending, won or lost")    // 400
	ErrInvalidOdds        = errors.New("odds must be greater than 1")            // 400
)

// Promo code errors
var (
	ErrPromoCodeNotFound    = errors.New("promo code request not found")                      // 404
	ErrPromoCodeDecided     = errors.New("promo code request has already been decided")       // 409
	ErrPromoFieldsRequired  = errors.New("bookmaker, requested code and reason are required") // 400
	ErrUnknownBookmaker     = errors.New("unknown bookmaker")                                 // 400
	ErrApprovedCodeRequired = errors.New("approved code is required")                         // 400
)

// Infrastructure errors
var (
	ErrUnavailable   = errors.New("service unavailable, please check your connection") // 503
	ErrLockNotHeld   = errors.New("operation already in progress")                     // 409
	ErrTokenRequired = errors.New("token is required")                                 // 400
)

// Config errors (server-side configuration)
var (
	ErrDBAdapterRequired   = errors.New("database adapter is required") // 500
	ErrHTTPAdapterRequired = errors.New("adapter is required")          // 500
	ErrSecretRequired      = errors.New("secret is required")           // 500
	ErrSecretTooShort      = errors.New("secret too short")             // 500
	ErrBlobStoreRequired   = errors.New("blob store is required")       // 500
)

var (
	ErrNotImplemented = errors.New("not implemented") // 501
)
