package core

import (
	"context"
	"io"
	"time"
)

// Ports define interfaces for external dependencies

// ============================================
// STORAGE PORTS (Database operations)
// ============================================

type SessionStorage interface {
	CreateSession(ctx context.Context, session *Session) error

	// Query methods
	GetSessionByHash(ctx context.Context, tokenHash string) (*Session, error)
	GetSessionByID(ctx context.Context, id string) (*Session, error)
	GetUserSessions(ctx context.Context, userID string) ([]*Session, error)

	// Update
	UpdateSession(ctx context.Context, session *Session) error

	// Delete methods
	DeleteSessionByID(ctx context.Context, id string) error
	DeleteSessionByHash(ctx context.Context, tokenHash string) error
	DeleteUserSessions(ctx context.Context, userID string) (int, error)

	// Cleanup
	DeleteExpiredSessions(ctx context.Context) (int, error)
}

type UserStorage interface {
	CreateUser(ctx context.Context, u *User) error

	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	UpdateUser(ctx context.Context, u *User) error
}

type AccountStorage interface {
	CreateAccount(ctx context.Context, a *Account) error

	GetAccountByUserAndProvider(ctx context.Context, userID, providerID string) ([]*Account, error)

	UpdateAccount(ctx context.Context, a *Account) error
}

type AuthStorage interface {
	UserStorage
	AccountStorage
	SessionStorage
}

// ProfileStorage is the profile repository. GetProfile returns
// ErrProfileNotFound when the user has no row yet.
type ProfileStorage interface {
	GetProfile(ctx context.Context, id string) (*Profile, error)
	// InsertProfile is a no-op when a profile with the same id already exists.
	InsertProfile(ctx context.Context, p *Profile) error
	// UpdateProfile applies edit to the stored row and writes it back
	// atomically with respect to other writers of the same row. Nothing is
	// written when edit fails.
	UpdateProfile(ctx context.Context, id string, edit func(*Profile) error) (*Profile, error)
	ListProfiles(ctx context.Context) ([]*Profile, error)
	// ExpireSubscriptions downgrades every paid profile whose end date is before today.
	ExpireSubscriptions(ctx context.Context, today time.Time) (int, error)
}

type PaymentFilter struct {
	Status *RequestStatus
	UserID string
}

type PaymentStorage interface {
	CreatePayment(ctx context.Context, p *PaymentRequest) error
	GetPayment(ctx context.Context, id string) (*PaymentRequest, error)
	ListPayments(ctx context.Context, filter PaymentFilter) ([]*PaymentRequest, error)
	// ApprovePayment moves a pending request to approved and applies the
	// resulting grant to the owner's profile atomically. A request that is no
	// longer pending yields ErrPaymentDecided and changes nothing.
	ApprovePayment(ctx context.Context, id string, at time.Time) (*PaymentDecision, error)
	RejectPayment(ctx context.Context, id string, at time.Time) (*PaymentRequest, error)
}

type MatchFilter struct {
	From *time.Time
	To   *time.Time
}

type MatchStorage interface {
	CreateMatch(ctx context.Context, m *Match) error
	GetMatch(ctx context.Context, id string) (*Match, error)
	ListMatches(ctx context.Context, filter MatchFilter) ([]*Match, error)
	UpdateMatch(ctx context.Context, m *Match) error
	DeleteMatch(ctx context.Context, id string) error
}

type PredictionFilter struct {
	Confidence *Confidence
	Limit      int
}

type PredictionStorage interface {
	CreatePrediction(ctx context.Context, p *Prediction) error
	GetPrediction(ctx context.Context, id string) (*Prediction, error)
	// ListPredictions returns newest first with the match joined.
	ListPredictions(ctx context.Context, filter PredictionFilter) ([]*Prediction, error)
	UpdatePrediction(ctx context.Context, p *Prediction) error
	DeletePrediction(ctx context.Context, id string) error
}

type PromoCodeFilter struct {
	Status *RequestStatus
	UserID string
}

type PromoCodeStorage interface {
	CreatePromoCode(ctx context.Context, r *PromoCodeRequest) error
	ListPromoCodes(ctx context.Context, filter PromoCodeFilter) ([]*PromoCodeRequest, error)
	// DecidePromoCode records the decision carried by r on a pending request
	// and fills r with the stored row. A decided request yields ErrPromoCodeDecided.
	DecidePromoCode(ctx context.Context, r *PromoCodeRequest) error
}

type StatsStorage interface {
	AdminStats(ctx context.Context, today time.Time) (*AdminStats, error)
}

// Storage is everything the application persists.
type Storage interface {
	AuthStorage
	ProfileStorage
	PaymentStorage
	MatchStorage
	PredictionStorage
	PromoCodeStorage
	StatsStorage
}

// ============================================
// CACHE PORT
// ============================================

// Cache defines session caching operations
type Cache interface {
	Get(tokenHash string) (*Session, error)
	Set(tokenHash string, session *Session) error
	Delete(tokenHash string) error
	Clear() error
}

// CacheWithStats extends Cache with statistics tracking
type CacheWithStats interface {
	Cache
	Stats() CacheStats
}

// ============================================
// INFRASTRUCTURE PORTS
// ============================================

// BlobStore keeps uploaded files and hands back a public URL for them.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (url string, err error)
}

// FixturesProvider lists the day's real-world fixtures.
type FixturesProvider interface {
	Fixtures(ctx context.Context, day time.Time) ([]*Match, error)
}

// Locker serializes work across processes. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, err error)
}

type Email struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, e Email) error
}
