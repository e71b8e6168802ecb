package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lborres/coupons/core"
)

type PromoService struct {
	store core.PromoCodeStorage
	now   func() time.Time
}

func NewPromoService(store core.PromoCodeStorage) *PromoService {
	return &PromoService{store: store, now: time.Now}
}

type PromoCodeInput struct {
	Bookmaker     string `json:"bookmaker"`
	RequestedCode string `json:"requested_code"`
	Reason        string `json:"reason"`
}

func (s *PromoService) Request(ctx context.Context, userID string, in PromoCodeInput) (*core.PromoCodeRequest, error) {
	bookmaker := strings.TrimSpace(in.Bookmaker)
	code := strings.TrimSpace(in.RequestedCode)
	reason := strings.TrimSpace(in.Reason)
	if bookmaker == "" || code == "" || reason == "" {
		return nil, core.ErrPromoFieldsRequired
	}
	if !core.IsBookmaker(bookmaker) {
		return nil, core.ErrUnknownBookmaker
	}

	now := s.now()
	r := &core.PromoCodeRequest{
		UserID:        userID,
		Bookmaker:     bookmaker,
		RequestedCode: code,
		Reason:        reason,
		Status:        core.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreatePromoCode(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create promo code request: %w", err)
	}
	return r, nil
}

func (s *PromoService) ListForUser(ctx context.Context, userID string) ([]*core.PromoCodeRequest, error) {
	return s.store.ListPromoCodes(ctx, core.PromoCodeFilter{UserID: userID})
}

func (s *PromoService) List(ctx context.Context, status string) ([]*core.PromoCodeRequest, error) {
	filter, err := statusFilter(status)
	if err != nil {
		return nil, err
	}
	return s.store.ListPromoCodes(ctx, core.PromoCodeFilter{Status: filter})
}

func (s *PromoService) Approve(ctx context.Context, id, adminID, approvedCode, note string) (*core.PromoCodeRequest, error) {
	approvedCode = strings.TrimSpace(approvedCode)
	if approvedCode == "" {
		return nil, core.ErrApprovedCodeRequired
	}
	return s.decide(ctx, id, adminID, core.StatusApproved, &approvedCode, note)
}

func (s *PromoService) Reject(ctx context.Context, id, adminID, note string) (*core.PromoCodeRequest, error) {
	return s.decide(ctx, id, adminID, core.StatusRejected, nil, note)
}

func (s *PromoService) decide(ctx context.Context, id, adminID string, status core.RequestStatus, code *string, note string) (*core.PromoCodeRequest, error) {
	r := &core.PromoCodeRequest{
		ID:           id,
		Status:       status,
		ApprovedCode: code,
		AdminID:      &adminID,
		UpdatedAt:    s.now(),
	}
	if note = strings.TrimSpace(note); note != "" {
		r.AdminNote = &note
	}
	if err := s.store.DecidePromoCode(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}
