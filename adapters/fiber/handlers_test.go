package fiber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lborres/coupons"
	"github.com/lborres/coupons/adapters/blob"
	"github.com/lborres/coupons/adapters/memory"
	"github.com/lborres/coupons/bootstrap"
	"github.com/lborres/coupons/core"
	"github.com/lborres/coupons/pkg/crypto"
	"github.com/lborres/coupons/services"
)

const (
	testSecret   = "secretshouldbeatleast32charslong"
	testPassword = "SecurePass123!"
)

// a minimal PNG header is enough for content sniffing
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

type testServer struct {
	app     *fiber.App
	coupons *coupons.Coupons
}

func newTestServer(t *testing.T, db coupons.Storage, opts ...Option) *testServer {
	t.Helper()
	return newTestServerWith(t, db, nil, opts...)
}

// newTestServerWith lets configure adjust the coupons config before New.
func newTestServerWith(t *testing.T, db coupons.Storage, configure func(*coupons.Config), opts ...Option) *testServer {
	t.Helper()

	blobs, err := blob.NewDiskStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	app := fiber.New(fiber.Config{BodyLimit: 8 << 20})
	opts = append([]Option{WithUploads("/uploads", blobs.Root())}, opts...)

	cfg := coupons.Config{
		Secret:             testSecret,
		Database:           db,
		HTTP:               New(app, opts...),
		Blobs:              blobs,
		PasswordHasher:     &crypto.Argon2{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		ProfileRetryDelays: []time.Duration{time.Millisecond},
		AdminProfileWait:   200 * time.Millisecond,
	}
	if configure != nil {
		configure(&cfg)
	}
	c, err := coupons.New(cfg)
	require.NoError(t, err)

	return &testServer{app: app, coupons: c}
}

func (s *testServer) send(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := s.app.Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return s.send(t, req)
}

// userToken signs a user up directly against the auth service. No client
// exists for the token until its first request.
func (s *testServer) userToken(t *testing.T, email string) string {
	t.Helper()
	res, err := s.coupons.Auth.SignUp(context.Background(), core.SignUpInput{Email: email, Password: testPassword}, "", "")
	require.NoError(t, err)
	return res.Token
}

func (s *testServer) adminToken(t *testing.T, email string) string {
	t.Helper()
	token := s.userToken(t, email)
	_, err := s.coupons.Profiles.GrantAdmin(context.Background(), email)
	require.NoError(t, err)
	return token
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// heldProfiles holds profile reads back until released.
type heldProfiles struct {
	*memory.Store
	release chan struct{}
}

func (h *heldProfiles) GetProfile(ctx context.Context, id string) (*core.Profile, error) {
	select {
	case <-h.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return h.Store.GetProfile(ctx, id)
}

// Requirement: domain errors map to their HTTP status codes
func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "bad credentials", err: core.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{name: "unconfirmed email", err: core.ErrEmailNotConfirmed, want: http.StatusForbidden},
		{name: "wrapped validation", err: fmt.Errorf("failed to submit: %w", core.ErrInvalidPlan), want: http.StatusBadRequest},
		{name: "bad date", err: fmt.Errorf("%w: %q", core.ErrInvalidDate, "x"), want: http.StatusBadRequest},
		{name: "screenshot too large", err: core.ErrScreenshotTooLarge, want: http.StatusRequestEntityTooLarge},
		{name: "not an image", err: core.ErrScreenshotType, want: http.StatusUnsupportedMediaType},
		{name: "already decided", err: core.ErrPaymentDecided, want: http.StatusConflict},
		{name: "missing match", err: core.ErrMatchNotFound, want: http.StatusNotFound},
		{name: "transport failure", err: fmt.Errorf("connect: %w", core.ErrUnavailable), want: http.StatusServiceUnavailable},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Act
			got := mapErrorToStatus(test.err)

			// Assert
			assert.Equal(t, test.want, got)
		})
	}
}

// Requirement: a transport failure reads as a connection problem, never as the raw error
func TestHandleError_Unavailable(t *testing.T) {
	// Arrange
	app := fiber.New()
	app.Get("/", func(c fiber.Ctx) error {
		return handleError(c, fmt.Errorf("dial tcp: %w", core.ErrUnavailable))
	})

	// Act
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decode[core.ErrorResponse](t, resp)
	assert.Equal(t, core.ErrUnavailable.Error(), body.Error)
}

// Requirement: every endpoint of the registry is mounted
func TestRegisterRoutes_MountsEndpoints(t *testing.T) {
	// Arrange
	s := newTestServer(t, memory.New())

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/health", http.StatusOK},
		{http.MethodGet, "/api/plans", http.StatusOK},
		{http.MethodGet, "/api/bookmakers", http.StatusOK},
		{http.MethodGet, "/api/dashboard", http.StatusUnauthorized},
		{http.MethodGet, "/api/admin/stats", http.StatusUnauthorized},
		{http.MethodGet, "/api/nowhere", http.StatusNotFound},
	}

	for _, test := range tests {
		test := test
		t.Run(test.method+" "+test.path, func(t *testing.T) {
			// Act
			resp := s.do(t, test.method, test.path, "", nil)

			// Assert
			assert.Equal(t, test.want, resp.StatusCode)
		})
	}
}

// Requirement: bad credentials answer 401 with a message and no session
func TestSignIn_InvalidCredentials(t *testing.T) {
	// Arrange
	s := newTestServer(t, memory.New())
	s.userToken(t, "awa@example.com")

	// Act
	resp := s.do(t, http.MethodPost, "/api/auth/sign-in", "", core.SignInInput{Email: "awa@example.com", Password: "wrong-password"})

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(fiber.HeaderSetCookie))
	body := decode[core.ErrorResponse](t, resp)
	assert.Equal(t, core.ErrInvalidCredentials.Error(), body.Error)
	assert.Zero(t, s.coupons.Clients.Len())
}

// Requirement: sign-up sets the session cookie and the session shows the created profile
func TestSignUp_SessionFromCookie(t *testing.T) {
	// Arrange
	s := newTestServer(t, memory.New())

	// Act
	resp := s.do(t, http.MethodPost, "/api/auth/sign-up", "", core.SignUpInput{Email: "awa@example.com", Password: testPassword, Name: "Awa"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	result := decode[core.AuthResult](t, resp)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.Header.Set(fiber.HeaderCookie, sessionCookie+"="+result.Token)
	sessionResp := s.send(t, req)

	// Assert
	assert.Contains(t, resp.Header.Get(fiber.HeaderSetCookie), sessionCookie+"=")
	require.Equal(t, http.StatusOK, sessionResp.StatusCode)
	st := decode[bootstrap.State](t, sessionResp)
	require.NotNil(t, st.User)
	assert.Equal(t, "awa@example.com", st.User.Email)
	assert.Equal(t, 1, s.coupons.Clients.Len())
}

// Requirement: protected routes send signed-out callers to the login page
func TestRequireAuth_Denies(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		accept string
		want   int
	}{
		{name: "json without token", want: http.StatusUnauthorized},
		{name: "json with unknown token", token: "unknown", want: http.StatusUnauthorized},
		{name: "browser without token", accept: fiber.MIMETextHTML, want: http.StatusSeeOther},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			s := newTestServer(t, memory.New())
			req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
			if test.token != "" {
				req.Header.Set(fiber.HeaderAuthorization, "Bearer "+test.token)
			}
			if test.accept != "" {
				req.Header.Set(fiber.HeaderAccept, test.accept)
			}

			// Act
			resp := s.send(t, req)

			// Assert
			assert.Equal(t, test.want, resp.StatusCode)
			if test.accept != "" {
				assert.Equal(t, loginPath, resp.Header.Get(fiber.HeaderLocation))
				return
			}
			body := decode[core.ErrorResponse](t, resp)
			assert.Equal(t, loginPath, body.Redirect)
		})
	}
}

// Requirement: a session that ended after its client was built no longer passes the guard
func TestRequireAuth_DeadSession(t *testing.T) {
	tests := []struct {
		name   string
		maxAge time.Duration
		end    func(t *testing.T, s *testServer, token string)
	}{
		{
			name:   "expired",
			maxAge: 500 * time.Millisecond,
			end: func(*testing.T, *testServer, string) {
				time.Sleep(time.Second)
			},
		},
		{
			name:   "destroyed without notifying this process",
			maxAge: time.Hour,
			end: func(t *testing.T, s *testServer, token string) {
				require.NoError(t, s.coupons.Sessions.Destroy(context.Background(), token))
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			s := newTestServerWith(t, memory.New(), func(cfg *coupons.Config) {
				cfg.SessionConfig = &coupons.SessionConfig{MaxAge: test.maxAge}
			})
			token := s.userToken(t, "awa@example.com")
			before := s.do(t, http.MethodGet, "/api/profile", token, nil)
			require.Equal(t, http.StatusOK, before.StatusCode)
			require.Equal(t, 1, s.coupons.Clients.Len())

			test.end(t, s, token)

			// Act
			resp := s.do(t, http.MethodGet, "/api/profile", token, nil)

			// Assert
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			body := decode[core.ErrorResponse](t, resp)
			assert.Equal(t, loginPath, body.Redirect)
			assert.Zero(t, s.coupons.Clients.Len())
		})
	}
}

// Requirement: a live session whose client was torn down is served by a rebuilt client
func TestRequireAuth_TornDownClient(t *testing.T) {
	// Arrange
	s := newTestServer(t, memory.New())
	token := s.userToken(t, "awa@example.com")
	old, err := s.coupons.Clients.Resolve(context.Background(), token, "", "")
	require.NoError(t, err)
	old.Close()

	// Act
	resp := s.do(t, http.MethodGet, "/api/profile", token, nil)

	// Assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	current, err := s.coupons.Clients.Resolve(context.Background(), token, "", "")
	require.NoError(t, err)
	assert.NotSame(t, old, current)
	assert.False(t, current.Controller.Closed())
}

// Requirement: an admin whose flag is cleared is turned away on the next request
func TestRequireAdmin_Revoked(t *testing.T) {
	// Arrange
	s := newTestServer(t, memory.New())
	token := s.adminToken(t, "boss@example.com")
	before := s.do(t, http.MethodGet, "/api/admin/stats", token, nil)
	require.Equal(t, http.StatusOK, before.StatusCode)

	session, err := s.coupons.Auth.GetSession(context.Background(), token)
	require.NoError(t, err)
	demote := false
	_, err = s.coupons.Profiles.Update(context.Background(), session.User.ID, core.ProfileUpdate{IsAdmin: &demote})
	require.NoError(t, err)

	// Act
	resp := s.do(t, http.MethodGet, "/api/admin/stats", token, nil)

	// Assert
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	body := decode[core.ErrorResponse](t, resp)
	assert.Equal(t, homePath, body.Redirect)
}

// Requirement: an admin granted after the client was built is let through on the next request
func TestRequireAdmin_GrantedLater(t *testing.T) {
	// Arrange
	s := newTestServer(t, memory.New())
	token := s.userToken(t, "awa@example.com")
	before := s.do(t, http.MethodGet, "/api/admin/stats", token, nil)
	require.Equal(t, http.StatusForbidden, before.StatusCode)

	_, err := s.coupons.Profiles.GrantAdmin(context.Background(), "awa@example.com")
	require.NoError(t, err)

	// Act
	resp := s.do(t, http.MethodGet, "/api/admin/stats", token, nil)

	// Assert
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// Requirement: the admin guard lets through only profiles that resolved with the admin flag
func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name         string
		hold         bool
		admin        bool
		wantStatus   int
		wantRedirect string
	}{
		{name: "denies a regular user", wantStatus: http.StatusForbidden, wantRedirect: homePath},
		{name: "allows an admin", admin: true, wantStatus: http.StatusOK},
		{name: "denies when the profile is still unresolved", hold: true, admin: true, wantStatus: http.StatusForbidden, wantRedirect: homePath},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			store := memory.New()
			var db coupons.Storage = store
			if test.hold {
				held := &heldProfiles{Store: store, release: make(chan struct{})}
				t.Cleanup(func() { close(held.release) })
				db = held
			}
			s := newTestServer(t, db)

			token := s.userToken(t, "user@example.com")
			if test.admin {
				_, err := services.NewProfileService(store, store).GrantAdmin(context.Background(), "user@example.com")
				require.NoError(t, err)
			}

			// Act
			resp := s.do(t, http.MethodGet, "/api/admin/stats", token, nil)

			// Assert
			require.Equal(t, test.wantStatus, resp.StatusCode)
			if test.wantRedirect != "" {
				body := decode[core.ErrorResponse](t, resp)
				assert.Equal(t, test.wantRedirect, body.Redirect)
			}
		})
	}
}

func screenshotRequest(t *testing.T, token string, fields map[string]string, screenshot []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if screenshot != nil {
		part, err := w.CreateFormFile(screenshotField, "proof.png")
		require.NoError(t, err)
		_, err = part.Write(screenshot)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/payments", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	return req
}

// Requirement: a submitted payment reads back unchanged with a screenshot URL that serves the upload
func TestSubmitPayment_RoundTrip(t *testing.T) {
	// Arrange
	s := newTestServer(t, memory.New())
	token := s.userToken(t, "awa@example.com")
	fields := map[string]string{
		"plan":           string(core.TierStandard),
		"duration":       string(core.DurationMonthly),
		"amount":         "750",
		"payment_method": string(core.MethodOrangeMoney),
		"sender_number":  "70000000",
	}

	// Act
	resp := s.send(t, screenshotRequest(t, token, fields, pngBytes))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[core.PaymentRequest](t, resp)

	listResp := s.do(t, http.MethodGet, "/api/payments", token, nil)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	list := decode[[]core.PaymentRequest](t, listResp)

	// Assert
	require.Len(t, list, 1)
	got := list[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, core.TierStandard, got.Plan)
	assert.Equal(t, core.DurationMonthly, got.Duration)
	assert.Equal(t, 750, got.Amount)
	assert.Equal(t, core.MethodOrangeMoney, got.Method)
	assert.Equal(t, core.StatusPending, got.Status)

	fileResp := s.do(t, http.MethodGet, got.ScreenshotURL, "", nil)
	require.Equal(t, http.StatusOK, fileResp.StatusCode)
	served, err := io.ReadAll(fileResp.Body)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, served)
}

// Requirement: payment submissions are validated before anything is stored
func TestSubmitPayment_Rejects(t *testing.T) {
	valid := func() map[string]string {
		return map[string]string{
			"plan":           string(core.TierVIP),
			"duration":       string(core.DurationAnnual),
			"payment_method": string(core.MethodMoovMoney),
		}
	}

	tests := []struct {
		name       string
		fields     func() map[string]string
		screenshot []byte
		want       int
	}{
		{name: "missing screenshot", fields: valid, want: http.StatusBadRequest},
		{name: "not an image", fields: valid, screenshot: []byte("plain text, not a picture"), want: http.StatusUnsupportedMediaType},
		{
			name: "amount differs from the price",
			fields: func() map[string]string {
				f := valid()
				f["amount"] = "100"
				return f
			},
			screenshot: pngBytes,
			want:       http.StatusBadRequest,
		},
		{
			name: "free is not for sale",
			fields: func() map[string]string {
				f := valid()
				f["plan"] = string(core.TierFree)
				return f
			},
			screenshot: pngBytes,
			want:       http.StatusBadRequest,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			s := newTestServer(t, memory.New())
			token := s.userToken(t, "awa@example.com")

			// Act
			resp := s.send(t, screenshotRequest(t, token, test.fields(), test.screenshot))

			// Assert
			assert.Equal(t, test.want, resp.StatusCode)
			list := decode[[]core.PaymentRequest](t, s.do(t, http.MethodGet, "/api/payments", token, nil))
			assert.Empty(t, list)
		})
	}
}

// Requirement: approving grants one month from the approval day, and approving again changes nothing
func TestAdminApprovePayment(t *testing.T) {
	// Arrange
	s := newTestServer(t, memory.New())
	adminToken := s.adminToken(t, "admin@example.com")
	userToken := s.userToken(t, "awa@example.com")
	fields := map[string]string{
		"plan":           string(core.TierStandard),
		"duration":       string(core.DurationMonthly),
		"payment_method": string(core.MethodOrangeMoney),
	}
	created := decode[core.PaymentRequest](t, s.send(t, screenshotRequest(t, userToken, fields, pngBytes)))
	approvePath := "/api/admin/payments/" + created.ID + "/approve"

	// Act
	first := s.do(t, http.MethodPost, approvePath, adminToken, nil)
	second := s.do(t, http.MethodPost, approvePath, adminToken, nil)

	// Assert
	require.Equal(t, http.StatusOK, first.StatusCode)
	decision := decode[core.PaymentDecision](t, first)
	assert.Equal(t, core.StatusApproved, decision.Payment.Status)
	require.NotNil(t, decision.Profile)
	assert.Equal(t, core.TierStandard, decision.Profile.Tier)
	assert.False(t, decision.Profile.IsAnnual)
	wantEnd := core.AddMonths(core.DateOf(time.Now()), 1)
	require.NotNil(t, decision.Profile.SubscriptionEnd)
	assert.True(t, wantEnd.Equal(*decision.Profile.SubscriptionEnd), "end %s, want %s", decision.Profile.SubscriptionEnd, wantEnd)

	assert.Equal(t, http.StatusConflict, second.StatusCode)
	profile, err := s.coupons.Profiles.Get(context.Background(), decision.Profile.ID)
	require.NoError(t, err)
	assert.True(t, wantEnd.Equal(*profile.SubscriptionEnd))
}

// Requirement: a free user never receives vip predictions
func TestPredictions_VIPGating(t *testing.T) {
	// Arrange
	s := newTestServer(t, memory.New())
	adminToken := s.adminToken(t, "admin@example.com")
	userToken := s.userToken(t, "awa@example.com")

	matchResp := s.do(t, http.MethodPost, "/api/admin/matches", adminToken, core.Match{
		HomeTeam:  "ASFA Yennenga",
		AwayTeam:  "Rahimo FC",
		MatchDate: time.Now().Add(2 * time.Hour),
		League:    "Ligue 1",
	})
	require.Equal(t, http.StatusCreated, matchResp.StatusCode)
	match := decode[core.Match](t, matchResp)

	predResp := s.do(t, http.MethodPost, "/api/admin/predictions", adminToken, core.Prediction{
		MatchID:         match.ID,
		PredictionType:  "1X2",
		PredictionValue: "1",
		Confidence:      core.ConfidenceVIP,
	})
	require.Equal(t, http.StatusCreated, predResp.StatusCode)

	// Act
	userResp := s.do(t, http.MethodGet, "/api/predictions", userToken, nil)
	adminResp := s.do(t, http.MethodGet, "/api/predictions", adminToken, nil)

	// Assert
	require.Equal(t, http.StatusOK, userResp.StatusCode)
	userFeed := decode[struct {
		VIP       []core.Prediction `json:"vip"`
		LockedVIP int               `json:"locked_vip"`
	}](t, userResp)
	assert.Empty(t, userFeed.VIP)
	assert.Equal(t, 1, userFeed.LockedVIP)

	adminFeed := decode[struct {
		VIP []core.Prediction `json:"vip"`
	}](t, adminResp)
	assert.Len(t, adminFeed.VIP, 1)
}

// Requirement: a profile edit is visible in the client's bootstrap state right away
func TestUpdateProfile_ReloadsState(t *testing.T) {
	// Arrange
	s := newTestServer(t, memory.New())
	token := s.userToken(t, "awa@example.com")

	// Act
	resp := s.do(t, http.MethodPatch, "/api/profile", token, profileInput{DisplayName: "  Awa Ouédraogo "})
	sessionResp := s.do(t, http.MethodGet, "/api/auth/session", token, nil)

	// Assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Awa Ouédraogo", decode[core.Profile](t, resp).DisplayName)
	st := decode[bootstrap.State](t, sessionResp)
	require.NotNil(t, st.Profile)
	assert.Equal(t, "Awa Ouédraogo", st.Profile.DisplayName)
}

// Requirement: signing out revokes the token and drops its client
func TestSignOut(t *testing.T) {
	// Arrange
	s := newTestServer(t, memory.New())
	token := s.userToken(t, "awa@example.com")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/profile", token, nil).StatusCode)

	// Act
	resp := s.do(t, http.MethodPost, "/api/auth/sign-out", token, nil)

	// Assert
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, s.coupons.Clients.Len())
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/profile", token, nil).StatusCode)
}

// Requirement: refreshing rotates the token and the old one stops working
func TestRefresh_RotatesToken(t *testing.T) {
	// Arrange
	s := newTestServer(t, memory.New())
	oldToken := s.userToken(t, "awa@example.com")

	// Act
	resp := s.do(t, http.MethodPost, "/api/auth/refresh", oldToken, nil)

	// Assert
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[core.AuthResult](t, resp)
	assert.NotEqual(t, oldToken, res.Token)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/profile", res.Token, nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/profile", oldToken, nil).StatusCode)
}

// Requirement: sign-in is rate limited per client
func TestSignIn_RateLimited(t *testing.T) {
	// Arrange
	s := newTestServer(t, memory.New(), WithRateLimit(2, time.Minute))
	input := core.SignInInput{Email: "nobody@example.com", Password: testPassword}

	// Act
	var codes []int
	for i := 0; i < 3; i++ {
		codes = append(codes, s.do(t, http.MethodPost, "/api/auth/sign-in", "", input).StatusCode)
	}

	// Assert
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}
