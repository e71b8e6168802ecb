// Package memory is a process-local core.Storage. It backs development runs
// without a database and the tests of the packages above storage.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lborres/coupons/core"
)

type Store struct {
	mu sync.RWMutex

	users       map[string]*core.User
	accounts    map[string]*core.Account
	sessions    map[string]*core.Session // by token hash
	profiles    map[string]*core.Profile
	payments    map[string]*core.PaymentRequest
	matches     map[string]*core.Match
	predictions map[string]*core.Prediction
	promoCodes  map[string]*core.PromoCodeRequest

	now func() time.Time
}

var _ core.Storage = (*Store)(nil)

func New() *Store {
	return &Store{
		users:       make(map[string]*core.User),
		accounts:    make(map[string]*core.Account),
		sessions:    make(map[string]*core.Session),
		profiles:    make(map[string]*core.Profile),
		payments:    make(map[string]*core.PaymentRequest),
		matches:     make(map[string]*core.Match),
		predictions: make(map[string]*core.Prediction),
		promoCodes:  make(map[string]*core.PromoCodeRequest),
		now:         time.Now,
	}
}

// SetClock replaces the time source used for created/updated stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// ============================================
// USERS & ACCOUNTS
// ============================================

func (s *Store) CreateUser(_ context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return core.ErrUserExists
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now

	c := *u
	s.users[u.ID] = &c
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, core.ErrUserNotFound
}

func (s *Store) UpdateUser(_ context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; !ok {
		return core.ErrUserNotFound
	}
	u.UpdatedAt = s.now()
	c := *u
	s.users[u.ID] = &c
	return nil
}

func (s *Store) CreateAccount(_ context.Context, a *core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := s.now()
	a.CreatedAt, a.UpdatedAt = now, now

	s.accounts[a.ID] = copyAccount(a)
	return nil
}

func (s *Store) GetAccountByUserAndProvider(_ context.Context, userID, providerID string) ([]*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*core.Account
	for _, a := range s.accounts {
		if a.UserID == userID && a.ProviderID == providerID {
			out = append(out, copyAccount(a))
		}
	}
	return out, nil
}

func (s *Store) UpdateAccount(_ context.Context, a *core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.accounts[a.ID]
	if !ok {
		return core.ErrInvalidCredentials
	}
	// strictly increasing so credential stamps always change
	now := s.now()
	if !now.After(prev.UpdatedAt) {
		now = prev.UpdatedAt.Add(time.Nanosecond)
	}
	a.UpdatedAt = now
	s.accounts[a.ID] = copyAccount(a)
	return nil
}

func copyAccount(a *core.Account) *core.Account {
	c := *a
	if a.Password != nil {
		pw := *a.Password
		c.Password = &pw
	}
	return &c
}

// ============================================
// SESSIONS
// ============================================

func (s *Store) CreateSession(_ context.Context, session *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	c := *session
	s.sessions[session.TokenHash] = &c
	return nil
}

func (s *Store) GetSessionByHash(_ context.Context, tokenHash string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[tokenHash]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	c := *session
	return &c, nil
}

func (s *Store) GetSessionByID(_ context.Context, id string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, session := range s.sessions {
		if session.ID == id {
			c := *session
			return &c, nil
		}
	}
	return nil, core.ErrSessionNotFound
}

func (s *Store) GetUserSessions(_ context.Context, userID string) ([]*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*core.Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			c := *session
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *Store) UpdateSession(_ context.Context, session *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.TokenHash]; !ok {
		return core.ErrSessionNotFound
	}
	session.UpdatedAt = s.now()
	c := *session
	s.sessions[session.TokenHash] = &c
	return nil
}

func (s *Store) DeleteSessionByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for hash, session := range s.sessions {
		if session.ID == id {
			delete(s.sessions, hash)
			return nil
		}
	}
	return core.ErrSessionNotFound
}

func (s *Store) DeleteSessionByHash(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[tokenHash]; !ok {
		return core.ErrSessionNotFound
	}
	delete(s.sessions, tokenHash)
	return nil
}

func (s *Store) DeleteUserSessions(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for hash, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, hash)
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteExpiredSessions(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for hash, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, hash)
			n++
		}
	}
	return n, nil
}

// ============================================
// PROFILES
// ============================================

func (s *Store) GetProfile(_ context.Context, id string) (*core.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, core.ErrProfileNotFound
	}
	return s.profileView(p), nil
}

func (s *Store) InsertProfile(_ context.Context, p *core.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[p.ID]; ok {
		return nil
	}
	now := s.now()
	c := copyProfile(p)
	c.Email = ""
	c.CreatedAt, c.UpdatedAt = now, now
	s.profiles[p.ID] = c
	return nil
}

func (s *Store) UpdateProfile(_ context.Context, id string, edit func(*core.Profile) error) (*core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.profiles[id]
	if !ok {
		return nil, core.ErrProfileNotFound
	}
	p := s.profileView(prev)
	if err := edit(p); err != nil {
		return nil, err
	}
	p.ID = prev.ID
	p.CreatedAt = prev.CreatedAt
	p.UpdatedAt = s.now()

	c := copyProfile(p)
	c.Email = ""
	s.profiles[id] = c
	return p, nil
}

func (s *Store) ListProfiles(_ context.Context) ([]*core.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*core.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, s.profileView(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ExpireSubscriptions(_ context.Context, today time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today = core.DateOf(today)
	n := 0
	for _, p := range s.profiles {
		if p.Tier == core.TierFree || p.SubscriptionEnd == nil {
			continue
		}
		if core.DateOf(*p.SubscriptionEnd).Before(today) {
			p.Tier = core.TierFree
			p.IsAnnual = false
			p.UpdatedAt = s.now()
			n++
		}
	}
	return n, nil
}

// profileView joins the owner's email like the SQL listing does.
func (s *Store) profileView(p *core.Profile) *core.Profile {
	c := copyProfile(p)
	if u, ok := s.users[p.ID]; ok {
		c.Email = u.Email
	}
	return c
}

func copyProfile(p *core.Profile) *core.Profile {
	c := *p
	if p.SubscriptionStart != nil {
		t := *p.SubscriptionStart
		c.SubscriptionStart = &t
	}
	if p.SubscriptionEnd != nil {
		t := *p.SubscriptionEnd
		c.SubscriptionEnd = &t
	}
	return &c
}

// ============================================
// PAYMENTS
// ============================================

func (s *Store) CreatePayment(_ context.Context, p *core.PaymentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	c := *p
	s.payments[p.ID] = &c
	return nil
}

func (s *Store) GetPayment(_ context.Context, id string) (*core.PaymentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, core.ErrPaymentNotFound
	}
	return s.paymentView(p), nil
}

func (s *Store) ListPayments(_ context.Context, filter core.PaymentFilter) ([]*core.PaymentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*core.PaymentRequest{}
	for _, p := range s.payments {
		if filter.UserID != "" && p.UserID != filter.UserID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		out = append(out, s.paymentView(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ApprovePayment(_ context.Context, id string, at time.Time) (*core.PaymentDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, core.ErrPaymentNotFound
	}
	if p.Status != core.StatusPending {
		return nil, core.ErrPaymentDecided
	}

	profile, ok := s.profiles[p.UserID]
	if !ok {
		return nil, core.ErrProfileNotFound
	}

	p.Status = core.StatusApproved
	p.ValidatedAt = &at
	core.GrantFor(p, at).Apply(profile)
	profile.UpdatedAt = s.now()

	return &core.PaymentDecision{Payment: s.paymentView(p), Profile: s.profileView(profile)}, nil
}

func (s *Store) RejectPayment(_ context.Context, id string, at time.Time) (*core.PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, core.ErrPaymentNotFound
	}
	if p.Status != core.StatusPending {
		return nil, core.ErrPaymentDecided
	}

	p.Status = core.StatusRejected
	p.ValidatedAt = &at
	return s.paymentView(p), nil
}

func (s *Store) paymentView(p *core.PaymentRequest) *core.PaymentRequest {
	c := *p
	if u, ok := s.users[p.UserID]; ok {
		c.UserEmail = u.Email
	}
	if prof, ok := s.profiles[p.UserID]; ok {
		c.UserName = prof.DisplayName
	}
	return &c
}

// ============================================
// MATCHES & PREDICTIONS
// ============================================

func (s *Store) CreateMatch(_ context.Context, m *core.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := s.now()
	m.CreatedAt, m.UpdatedAt = now, now
	c := *m
	s.matches[m.ID] = &c
	return nil
}

func (s *Store) GetMatch(_ context.Context, id string) (*core.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	if !ok {
		return nil, core.ErrMatchNotFound
	}
	c := *m
	return &c, nil
}

func (s *Store) ListMatches(_ context.Context, filter core.MatchFilter) ([]*core.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*core.Match{}
	for _, m := range s.matches {
		if filter.From != nil && m.MatchDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !m.MatchDate.Before(*filter.To) {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchDate.Before(out[j].MatchDate) })
	return out, nil
}

func (s *Store) UpdateMatch(_ context.Context, m *core.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[m.ID]; !ok {
		return core.ErrMatchNotFound
	}
	m.UpdatedAt = s.now()
	c := *m
	s.matches[m.ID] = &c
	return nil
}

// DeleteMatch removes the match and its predictions.
func (s *Store) DeleteMatch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[id]; !ok {
		return core.ErrMatchNotFound
	}
	delete(s.matches, id)
	for pid, p := range s.predictions {
		if p.MatchID == id {
			delete(s.predictions, pid)
		}
	}
	return nil
}

func (s *Store) CreatePrediction(_ context.Context, p *core.Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[p.MatchID]; !ok {
		return core.ErrMatchNotFound
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	c := *p
	c.Match = nil
	s.predictions[p.ID] = &c
	return nil
}

func (s *Store) GetPrediction(_ context.Context, id string) (*core.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.predictions[id]
	if !ok {
		return nil, core.ErrPredictionNotFound
	}
	return s.predictionView(p), nil
}

func (s *Store) ListPredictions(_ context.Context, filter core.PredictionFilter) ([]*core.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*core.Prediction{}
	for _, p := range s.predictions {
		if filter.Confidence != nil && p.Confidence != *filter.Confidence {
			continue
		}
		out = append(out, s.predictionView(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) UpdatePrediction(_ context.Context, p *core.Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.predictions[p.ID]; !ok {
		return core.ErrPredictionNotFound
	}
	if _, ok := s.matches[p.MatchID]; !ok {
		return core.ErrMatchNotFound
	}
	p.UpdatedAt = s.now()
	c := *p
	c.Match = nil
	s.predictions[p.ID] = &c
	return nil
}

func (s *Store) DeletePrediction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.predictions[id]; !ok {
		return core.ErrPredictionNotFound
	}
	delete(s.predictions, id)
	return nil
}

func (s *Store) predictionView(p *core.Prediction) *core.Prediction {
	c := *p
	if m, ok := s.matches[p.MatchID]; ok {
		mc := *m
		c.Match = &mc
	}
	return &c
}

// ============================================
// PROMO CODES
// ============================================

func (s *Store) CreatePromoCode(_ context.Context, r *core.PromoCodeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	c := *r
	s.promoCodes[r.ID] = &c
	return nil
}

func (s *Store) ListPromoCodes(_ context.Context, filter core.PromoCodeFilter) ([]*core.PromoCodeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*core.PromoCodeRequest{}
	for _, r := range s.promoCodes {
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		out = append(out, s.promoView(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DecidePromoCode(_ context.Context, r *core.PromoCodeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.promoCodes[r.ID]
	if !ok {
		return core.ErrPromoCodeNotFound
	}
	if stored.Status != core.StatusPending {
		return core.ErrPromoCodeDecided
	}

	stored.Status = r.Status
	stored.ApprovedCode = r.ApprovedCode
	stored.AdminNote = r.AdminNote
	stored.AdminID = r.AdminID
	stored.UpdatedAt = r.UpdatedAt
	*r = *s.promoView(stored)
	return nil
}

func (s *Store) promoView(r *core.PromoCodeRequest) *core.PromoCodeRequest {
	c := *r
	if u, ok := s.users[r.UserID]; ok {
		c.UserEmail = u.Email
	}
	if p, ok := s.profiles[r.UserID]; ok {
		c.UserName = p.DisplayName
	}
	return &c
}

// ============================================
// STATS
// ============================================

func (s *Store) AdminStats(_ context.Context, today time.Time) (*core.AdminStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	today = core.DateOf(today)
	tomorrow := today.AddDate(0, 0, 1)

	stats := &core.AdminStats{
		UsersByTier:         map[core.Tier]int{core.TierFree: 0, core.TierStandard: 0, core.TierVIP: 0},
		PredictionsByResult: map[core.PredictionResult]int{core.ResultPending: 0, core.ResultWon: 0, core.ResultLost: 0},
	}
	for _, p := range s.profiles {
		stats.UsersByTier[p.Tier]++
		if p.IsAdmin {
			stats.Admins++
		}
	}
	for _, p := range s.payments {
		if p.Status == core.StatusPending {
			stats.PendingPayments++
		}
	}
	for _, r := range s.promoCodes {
		if r.Status == core.StatusPending {
			stats.PendingPromoCodes++
		}
	}
	for _, m := range s.matches {
		if !m.MatchDate.Before(today) && m.MatchDate.Before(tomorrow) {
			stats.MatchesToday++
		}
	}
	for _, p := range s.predictions {
		stats.PredictionsByResult[p.Result]++
	}
	return stats, nil
}
