package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3/log"

	"github.com/lborres/coupons/core"
)

const (
	DefaultMaxScreenshotBytes = 5 << 20

	paymentLockTTL = 30 * time.Second
	expiryLockTTL  = 10 * time.Minute
	expiryLockKey  = "job:expire-subscriptions"
)

// Upload is a payment screenshot as received from the client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type PaymentService struct {
	store    core.PaymentStorage
	profiles core.ProfileStorage
	blobs    core.BlobStore
	locker   core.Locker
	maxBytes int64
	now      func() time.Time
}

func NewPaymentService(store core.PaymentStorage, profiles core.ProfileStorage, blobs core.BlobStore, locker core.Locker, maxBytes int64) *PaymentService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxScreenshotBytes
	}
	if locker == nil {
		locker = NewMemoryLocker()
	}
	return &PaymentService{
		store:    store,
		profiles: profiles,
		blobs:    blobs,
		locker:   locker,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// Submit stores the screenshot and records a pending payment request. The
// amount is computed from plan and duration; a client amount must agree.
func (s *PaymentService) Submit(ctx context.Context, userID string, sub core.PaymentSubmission, up *Upload) (*core.PaymentRequest, error) {
	// Step 1: Validate the order
	price, err := core.PriceFor(sub.Plan, sub.Duration)
	if err != nil {
		return nil, err
	}
	if sub.Amount != 0 && sub.Amount != price {
		return nil, core.ErrAmountMismatch
	}
	if !sub.Method.Valid() {
		return nil, core.ErrInvalidPaymentMethod
	}

	// Step 2: Check the screenshot
	if up == nil || up.Body == nil {
		return nil, core.ErrScreenshotRequired
	}
	if up.Size > s.maxBytes {
		return nil, core.ErrScreenshotTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(up.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read screenshot: %w", err)
	}
	if len(data) == 0 {
		return nil, core.ErrScreenshotRequired
	}
	if int64(len(data)) > s.maxBytes {
		return nil, core.ErrScreenshotTooLarge
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, core.ErrScreenshotType
	}

	// Step 3: Store it
	now := s.now()
	key := fmt.Sprintf("payment-screenshots/%s/%d.%s", userID, now.UnixMilli(), imageExt(contentType, up.Filename))
	url, err := s.blobs.Put(ctx, key, contentType, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to store screenshot: %w", err)
	}

	// Step 4: Record the request
	p := &core.PaymentRequest{
		UserID:        userID,
		Plan:          sub.Plan,
		Duration:      sub.Duration,
		Amount:        price,
		Method:        sub.Method,
		ScreenshotURL: url,
		Status:        core.StatusPending,
		CreatedAt:     now,
	}
	if sender := strings.TrimSpace(sub.SenderNumber); sender != "" {
		p.SenderNumber = &sender
	}
	if err := s.store.CreatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return p, nil
}

func (s *PaymentService) Get(ctx context.Context, id string) (*core.PaymentRequest, error) {
	return s.store.GetPayment(ctx, id)
}

func (s *PaymentService) ListForUser(ctx context.Context, userID string) ([]*core.PaymentRequest, error) {
	return s.store.ListPayments(ctx, core.PaymentFilter{UserID: userID})
}

// List returns every request, optionally narrowed to one status.
func (s *PaymentService) List(ctx context.Context, status string) ([]*core.PaymentRequest, error) {
	filter, err := statusFilter(status)
	if err != nil {
		return nil, err
	}
	return s.store.ListPayments(ctx, core.PaymentFilter{Status: filter})
}

// Approve grants the paid plan. Approving twice fails with
// core.ErrPaymentDecided, so a subscription is never extended twice.
func (s *PaymentService) Approve(ctx context.Context, id string) (*core.PaymentDecision, error) {
	unlock, err := s.locker.Lock(ctx, "payment:"+id, paymentLockTTL)
	if err != nil {
		return nil, err
	}
	defer s.release(unlock, id)

	decision, err := s.store.ApprovePayment(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	log.Infow("payment approved", "payment_id", id, "user_id", decision.Payment.UserID, "plan", decision.Payment.Plan)
	return decision, nil
}

func (s *PaymentService) Reject(ctx context.Context, id string) (*core.PaymentRequest, error) {
	unlock, err := s.locker.Lock(ctx, "payment:"+id, paymentLockTTL)
	if err != nil {
		return nil, err
	}
	defer s.release(unlock, id)

	return s.store.RejectPayment(ctx, id, s.now())
}

// ExpireSubscriptions downgrades lapsed subscriptions to free. Only one
// process runs it at a time.
func (s *PaymentService) ExpireSubscriptions(ctx context.Context) (int, error) {
	unlock, err := s.locker.Lock(ctx, expiryLockKey, expiryLockTTL)
	if err != nil {
		return 0, err
	}
	defer s.release(unlock, expiryLockKey)

	n, err := s.profiles.ExpireSubscriptions(ctx, core.DateOf(s.now()))
	if err != nil {
		return 0, fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	log.Infow("subscriptions expired", "count", n)
	return n, nil
}

func (s *PaymentService) release(unlock func(context.Context) error, key string) {
	if err := unlock(context.Background()); err != nil {
		log.Warnw("lock release failed", "key", key, "error", err)
	}
}

func statusFilter(status string) (*core.RequestStatus, error) {
	if status == "" || status == "all" {
		return nil, nil
	}
	st := core.RequestStatus(status)
	if !st.Valid() {
		return nil, core.ErrInvalidStatus
	}
	return &st, nil
}

func imageExt(contentType, filename string) string {
	switch contentType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/bmp":
		return "bmp"
	}
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."); ext != "" {
		return ext
	}
	return "img"
}
