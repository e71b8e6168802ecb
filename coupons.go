// Package coupons wires the betting-tips subscription service together:
// storage, sessions, the per-client auth bootstrap and the HTTP surface.
package coupons

import (
	"fmt"
	"time"

	"github.com/lborres/coupons/bootstrap"
	"github.com/lborres/coupons/core"
	"github.com/lborres/coupons/pkg/crypto"
	"github.com/lborres/coupons/services"
)

// interfaces
type (
	Storage   = core.Storage
	Cache     = core.Cache
	Locker    = core.Locker
	Mailer    = core.Mailer
	BlobStore = core.BlobStore

	FixturesProvider = core.FixturesProvider
	PasswordHandler  = crypto.PasswordHandler
)

type (
	SessionConfig  = core.SessionConfig
	CacheConfig    = core.CacheConfig
	RegistryConfig = bootstrap.RegistryConfig
)

const (
	defaultBasePath         = "/api"
	defaultSecretLen        = 32
	defaultAdminProfileWait = 5 * time.Second
)

// Constructors & helpers (convenience re-exports)
var (
	NewInMemoryCache     = core.NewInMemoryCache
	NewArgon2            = crypto.NewArgon2
	DefaultSessionConfig = core.DefaultSessionConfig
)

var (
	ErrDBAdapterRequired   = core.ErrDBAdapterRequired
	ErrHTTPAdapterRequired = core.ErrHTTPAdapterRequired
	ErrSecretRequired      = core.ErrSecretRequired
	ErrSecretTooShort      = core.ErrSecretTooShort
	ErrBlobStoreRequired   = core.ErrBlobStoreRequired
)

// HTTPAdapter mounts the API on a web framework.
type HTTPAdapter interface {
	RegisterRoutes(c *Coupons) error
}

type Config struct {
	// Secret signs confirmation and recovery links.
	Secret string

	Database Storage
	HTTP     HTTPAdapter
	Blobs    BlobStore

	CacheAdapter  Cache
	DisableCache  bool
	SessionConfig *SessionConfig

	PasswordHasher PasswordHandler
	Locker         Locker
	Mailer         Mailer
	Fixtures       FixturesProvider // optional

	BasePath                 string
	RequireEmailConfirmation bool
	PublicBaseURL            string
	UploadMaxBytes           int64

	// ProfileRetryDelays is the wait before each re-fetch of a missing
	// profile; nil means 1s, 2s, 3s.
	ProfileRetryDelays []time.Duration
	AdminProfileWait   time.Duration
	Registry           RegistryConfig
}

// Coupons holds the services an HTTP adapter serves.
type Coupons struct {
	Auth     *services.AuthService
	Sessions *services.SessionManager
	Clients  *bootstrap.Registry

	Profiles  *services.ProfileService
	Payments  *services.PaymentService
	Catalog   *services.CatalogService
	Promo     *services.PromoService
	Admin     *services.AdminService
	Endpoints *services.EndpointRegistry

	BasePath         string
	AdminProfileWait time.Duration
	UploadMaxBytes   int64
}

func New(config Config) (*Coupons, error) {
	if config.Secret == "" {
		return nil, ErrSecretRequired
	}
	if len(config.Secret) < defaultSecretLen {
		return nil, fmt.Errorf("%w - minimum of %d characters", ErrSecretTooShort, defaultSecretLen)
	}
	if config.Database == nil {
		return nil, ErrDBAdapterRequired
	}
	if config.HTTP == nil {
		return nil, ErrHTTPAdapterRequired
	}
	if config.Blobs == nil {
		return nil, ErrBlobStoreRequired
	}

	// Set Defaults

	cacheAdapter := config.CacheAdapter
	if cacheAdapter == nil && !config.DisableCache {
		cacheAdapter = NewInMemoryCache(CacheConfig{
			TTL:     5 * time.Minute,
			MaxSize: 500,
		})
	}

	sessionConfig := config.SessionConfig
	if sessionConfig == nil {
		sc := DefaultSessionConfig()
		sessionConfig = &sc
	}

	passwordHasher := config.PasswordHasher
	if passwordHasher == nil {
		passwordHasher = NewArgon2()
	}

	basePath := config.BasePath
	if basePath == "" {
		basePath = defaultBasePath
	}

	locker := config.Locker
	if locker == nil {
		locker = services.NewMemoryLocker()
	}

	mailer := config.Mailer
	if mailer == nil {
		mailer = services.LogMailer{}
	}

	adminWait := config.AdminProfileWait
	if adminWait <= 0 {
		adminWait = defaultAdminProfileWait
	}

	uploadMax := config.UploadMaxBytes
	if uploadMax <= 0 {
		uploadMax = services.DefaultMaxScreenshotBytes
	}

	db := config.Database
	sessionManager := services.NewSessionManager(*sessionConfig, db, cacheAdapter)
	auth := services.NewAuthService(db, sessionManager, passwordHasher,
		services.WithProfiles(db),
		services.WithMailer(mailer),
		services.WithTokenIssuer(services.NewTokenIssuer(config.Secret)),
		services.WithAuthConfig(services.AuthConfig{
			RequireEmailConfirmation: config.RequireEmailConfirmation,
			PublicBaseURL:            config.PublicBaseURL,
		}),
	)
	loader := bootstrap.NewProfileLoader(db, config.ProfileRetryDelays)

	c := &Coupons{
		Auth:     auth,
		Sessions: sessionManager,
		Clients:  bootstrap.NewRegistry(auth, loader, config.Registry),

		Profiles:  services.NewProfileService(db, db),
		Payments:  services.NewPaymentService(db, db, config.Blobs, locker, uploadMax),
		Catalog:   services.NewCatalogService(db, db, db, config.Fixtures),
		Promo:     services.NewPromoService(db),
		Admin:     services.NewAdminService(db),
		Endpoints: services.NewEndpointRegistry(),

		BasePath:         basePath,
		AdminProfileWait: adminWait,
		UploadMaxBytes:   uploadMax,
	}

	if err := config.HTTP.RegisterRoutes(c); err != nil {
		return nil, err
	}

	return c, nil
}
