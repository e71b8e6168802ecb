package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v3/log"

	"github.com/lborres/coupons/core"
	"github.com/lborres/coupons/pkg/crypto"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128

	confirmationTTL = 48 * time.Hour
	recoveryTTL     = time.Hour
)

type AuthConfig struct {
	// RequireEmailConfirmation withholds the session on sign-up until the
	// emailed link is followed.
	RequireEmailConfirmation bool
	// PublicBaseURL prefixes the links sent by email.
	PublicBaseURL string
}

type AuthService struct {
	db             core.AuthStorage
	profiles       core.ProfileStorage // optional
	passwordHasher crypto.PasswordHandler
	sessionManager *SessionManager
	tokens         *TokenIssuer
	mailer         core.Mailer
	notifier       *Notifier
	config         AuthConfig
}

type AuthOption func(*AuthService)

// WithProfiles lets sign-up create the profile row right away. The bootstrap
// flow still creates it lazily when this insert loses or fails.
func WithProfiles(p core.ProfileStorage) AuthOption {
	return func(s *AuthService) { s.profiles = p }
}

func WithMailer(m core.Mailer) AuthOption {
	return func(s *AuthService) { s.mailer = m }
}

func WithTokenIssuer(t *TokenIssuer) AuthOption {
	return func(s *AuthService) { s.tokens = t }
}

func WithNotifier(n *Notifier) AuthOption {
	return func(s *AuthService) { s.notifier = n }
}

func WithAuthConfig(c AuthConfig) AuthOption {
	return func(s *AuthService) { s.config = c }
}

func NewAuthService(db core.AuthStorage, sessionManager *SessionManager, passwordHasher crypto.PasswordHandler, opts ...AuthOption) *AuthService {
	s := &AuthService{
		db:             db,
		passwordHasher: passwordHasher,
		sessionManager: sessionManager,
		mailer:         LogMailer{},
		notifier:       NewNotifier(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) Notifier() *Notifier {
	return s.notifier
}

// SignUp registers a new user with email and password
func (s *AuthService) SignUp(ctx context.Context, input core.SignUpInput, ipAddress, userAgent string) (*core.AuthResult, error) {
	email, err := validateCredentials(input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	// Step 1: Check if user already exists
	existingUser, err := s.db.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, core.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, core.ErrUserExists
	}

	// Step 2: Hash the password
	hashedPassword, err := s.passwordHasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Step 3: Create the user
	user := &core.User{
		Email:         email,
		EmailVerified: !s.config.RequireEmailConfirmation,
		Name:          strings.TrimSpace(input.Name),
	}
	if err := s.db.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Step 4: Create a credential account for this user
	account := &core.Account{
		UserID:     user.ID,
		ProviderID: core.CredentialProvider,
		AccountID:  user.ID, // For credential provider, account ID = user ID
		Password:   &hashedPassword,
	}
	if err := s.db.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	// Step 5: Best-effort profile row
	if s.profiles != nil {
		if err := s.profiles.InsertProfile(ctx, core.NewDefaultProfile(user)); err != nil {
			log.Warnw("profile insert on sign-up failed", "user_id", user.ID, "error", err)
		}
	}

	// Step 6: Either ask for confirmation or open a session
	if s.config.RequireEmailConfirmation {
		if err := s.sendConfirmation(ctx, user); err != nil {
			log.Errorw("confirmation email failed", "user_id", user.ID, "error", err)
		}
		return &core.AuthResult{User: user, ConfirmationRequired: true}, nil
	}

	sessionResult, err := s.sessionManager.Create(ctx, user.ID, ipAddress, userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &core.AuthResult{
		User:    user,
		Session: sessionResult.Session,
		Token:   sessionResult.Token,
	}, nil
}

// SignIn authenticates a user with email and password
func (s *AuthService) SignIn(ctx context.Context, input core.SignInInput, ipAddress, userAgent string) (*core.AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, core.ErrEmailRequired
	}
	if input.Password == "" {
		return nil, core.ErrPasswordRequired
	}

	// Step 1: Find the user by email
	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, core.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// Step 2: Get the credential account for this user
	account, err := s.credentialAccount(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	// Step 3: Verify the password
	valid, err := s.passwordHasher.Verify(input.Password, *account.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, core.ErrInvalidCredentials
	}

	if s.config.RequireEmailConfirmation && !user.EmailVerified {
		return nil, core.ErrEmailNotConfirmed
	}

	// Step 4: Create a new session
	sessionResult, err := s.sessionManager.Create(ctx, user.ID, ipAddress, userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &core.AuthResult{
		User:    user,
		Session: sessionResult.Session,
		Token:   sessionResult.Token,
	}, nil
}

// SignOut invalidates the session behind token
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	if err := s.sessionManager.Destroy(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// GetSession retrieves session data by token
func (s *AuthService) GetSession(ctx context.Context, token string) (*core.SessionData, error) {
	session, err := s.sessionManager.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.db.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, core.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &core.SessionData{User: user, Session: session}, nil
}

// VerifySession checks that token still names a live session, without
// loading its user.
func (s *AuthService) VerifySession(ctx context.Context, token string) (*core.Session, error) {
	return s.sessionManager.Verify(ctx, token)
}

// Refresh rotates token and returns the replacement session.
func (s *AuthService) Refresh(ctx context.Context, token string) (*core.AuthResult, error) {
	rotated, err := s.sessionManager.Rotate(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.db.GetUserByID(ctx, rotated.Session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &core.AuthResult{User: user, Session: rotated.Session, Token: rotated.Token}, nil
}

// UpdatePassword changes the password of the user owning token. Other
// clients of the user are told through a USER_UPDATED change.
func (s *AuthService) UpdatePassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	data, err := s.GetSession(ctx, token)
	if err != nil {
		return err
	}

	if err := s.setPassword(ctx, data.User.ID, newPassword); err != nil {
		return err
	}

	s.notifier.Publish(core.SessionChange{Event: core.EventUserUpdated, UserID: data.User.ID, User: data.User})
	return nil
}

// RequestPasswordReset emails a recovery link. Unknown addresses succeed
// silently so the endpoint cannot be used to discover accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return core.ErrEmailRequired
	}

	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	account, err := s.credentialAccount(ctx, user.ID)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			return nil
		}
		return err
	}

	issuer, err := s.issuer()
	if err != nil {
		return err
	}
	token, err := issuer.Issue(PurposePasswordRecovery, user.ID, account.UpdatedAt.UnixNano(), recoveryTTL)
	if err != nil {
		return err
	}

	return s.mailer.Send(ctx, core.Email{
		To:      user.Email,
		Subject: "Réinitialisation de votre mot de passe",
		Body:    s.link("/reset-password", token),
	})
}

// ResetPassword sets a new password from a recovery token and revokes every
// session of the user. A token stops working once the password changed.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	issuer, err := s.issuer()
	if err != nil {
		return err
	}
	claims, err := issuer.Parse(token, PurposePasswordRecovery)
	if err != nil {
		return err
	}

	account, err := s.credentialAccount(ctx, claims.Subject)
	if err != nil {
		return core.ErrInvalidToken
	}
	if account.UpdatedAt.UnixNano() != claims.Stamp {
		return core.ErrInvalidToken
	}

	if err := s.setPassword(ctx, claims.Subject, newPassword); err != nil {
		return err
	}

	if _, err := s.sessionManager.DestroyAllUserSessions(ctx, claims.Subject); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	s.notifier.Publish(core.SessionChange{Event: core.EventSignedOut, UserID: claims.Subject})
	return nil
}

// ConfirmEmail marks the address of the token's user as verified.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (*core.User, error) {
	issuer, err := s.issuer()
	if err != nil {
		return nil, err
	}
	claims, err := issuer.Parse(token, PurposeEmailConfirmation)
	if err != nil {
		return nil, err
	}

	user, err := s.db.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, core.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.EmailVerified {
		return user, nil
	}

	user.EmailVerified = true
	if err := s.db.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.notifier.Publish(core.SessionChange{Event: core.EventUserUpdated, UserID: user.ID, User: user})
	return user, nil
}

func (s *AuthService) credentialAccount(ctx context.Context, userID string) (*core.Account, error) {
	accounts, err := s.db.GetAccountByUserAndProvider(ctx, userID, core.CredentialProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if len(accounts) == 0 || accounts[0].Password == nil {
		return nil, core.ErrInvalidCredentials
	}
	return accounts[0], nil
}

func (s *AuthService) setPassword(ctx context.Context, userID, password string) error {
	account, err := s.credentialAccount(ctx, userID)
	if err != nil {
		return err
	}

	hashed, err := s.passwordHasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	account.Password = &hashed
	if err := s.db.UpdateAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

func (s *AuthService) sendConfirmation(ctx context.Context, user *core.User) error {
	issuer, err := s.issuer()
	if err != nil {
		return err
	}
	token, err := issuer.Issue(PurposeEmailConfirmation, user.ID, 0, confirmationTTL)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, core.Email{
		To:      user.Email,
		Subject: "Confirmez votre adresse email",
		Body:    s.link("/api/auth/confirm", token),
	})
}

func (s *AuthService) issuer() (*TokenIssuer, error) {
	if s.tokens == nil {
		return nil, fmt.Errorf("email links: %w", core.ErrNotImplemented)
	}
	return s.tokens, nil
}

func (s *AuthService) link(path, token string) string {
	return strings.TrimRight(s.config.PublicBaseURL, "/") + path + "?token=" + token
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", core.ErrEmailRequired
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return "", core.ErrInvalidEmail
	}
	if err := validatePassword(password); err != nil {
		return "", err
	}
	return email, nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	switch {
	case n == 0:
		return core.ErrPasswordRequired
	case n < minPasswordLength:
		return core.ErrPasswordTooShort
	case n > maxPasswordLength:
		return core.ErrPasswordTooLong
	}
	return nil
}
