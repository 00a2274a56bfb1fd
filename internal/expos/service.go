package expos

import (
	"context"
	"fmt"

	"expopass/internal/shared/apperrors"

	"github.com/google/uuid"
)

// Service governs listing lifecycle transitions. The refund engine consults
// GetExpo and the status RefundPolicy; everything else is operator glue.
type Service interface {
	GetExpo(ctx context.Context, id uuid.UUID) (*Expo, error)
	TransitionExpo(ctx context.Context, id uuid.UUID, next Status) error
	TransitionAdvertisement(ctx context.Context, id uuid.UUID, next AdStatus) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetExpo(ctx context.Context, id uuid.UUID) (*Expo, error) {
	return s.repo.GetExpoByID(ctx, id)
}

func (s *service) TransitionExpo(ctx context.Context, id uuid.UUID, next Status) error {
	if !next.IsValid() {
		return fmt.Errorf("%w: unknown expo status %q", apperrors.ErrInvalidStateTransition, next)
	}

	expo, err := s.repo.GetExpoByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get expo: %w", err)
	}

	if !expo.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: expo %s cannot move %s -> %s",
			apperrors.ErrInvalidStateTransition, id, expo.Status, next)
	}

	return s.repo.UpdateExpoStatus(ctx, id, next)
}

func (s *service) TransitionAdvertisement(ctx context.Context, id uuid.UUID, next AdStatus) error {
	ad, err := s.repo.GetAdvertisementByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get advertisement: %w", err)
	}

	if !ad.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: advertisement %s cannot move %s -> %s",
			apperrors.ErrInvalidStateTransition, id, ad.Status, next)
	}

	return s.repo.UpdateAdvertisementStatus(ctx, id, next)
}
