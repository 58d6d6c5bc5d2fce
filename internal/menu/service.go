package menu

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// Catalog is the read-side lookup other components depend on. Order line
// creation and checkout re-pricing resolve items through it.
type Catalog interface {
	GetMenuItem(ctx context.Context, id uuid.UUID) (*Item, error)
}

// AuditSink receives menu-management audit events. Persistence of audit
// records lives outside this service.
type AuditSink interface {
	LogMenuChange(ctx context.Context, item *Item, changedBy string)
	LogAvailabilityChange(ctx context.Context, item *Item, changedBy string)
}

// LogAuditSink writes audit events to the process log. It is the default
// sink when no durable audit store is wired.
type LogAuditSink struct{}

func (LogAuditSink) LogMenuChange(_ context.Context, item *Item, changedBy string) {
	log.Info().
		Stringer("menu_id", item.ID).
		Str("name", item.Name).
		Str("changed_by", changedBy).
		Msg("menu item changed")
}

func (LogAuditSink) LogAvailabilityChange(_ context.Context, item *Item, changedBy string) {
	log.Info().
		Stringer("menu_id", item.ID).
		Bool("available", item.Available).
		Str("changed_by", changedBy).
		Msg("menu availability changed")
}

// Service manages the menu catalog and is the Catalog implementation used
// by the order engine.
type Service struct {
	repo  Repository
	audit AuditSink
}

func NewService(repo Repository, audit AuditSink) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) GetMenuItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListAvailable(ctx context.Context) ([]Item, error) {
	return s.repo.List(ctx, true)
}

func (s *Service) ListAll(ctx context.Context) ([]Item, error) {
	return s.repo.List(ctx, false)
}

func (s *Service) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]Item, error) {
	return s.repo.ListByCategory(ctx, categoryID)
}

func (s *Service) Search(ctx context.Context, term string) ([]Item, error) {
	return s.repo.Search(ctx, term)
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// UpdateItem replaces the editable fields of a menu item and records the
// change with the audit sink.
func (s *Service) UpdateItem(ctx context.Context, item *Item, changedBy string) error {
	if item.Price.IsNegative() {
		return fmt.Errorf("service: menu price for %s cannot be negative", item.Name)
	}
	if item.IsPromo && item.PromoPrice == nil {
		return fmt.Errorf("service: promo price is required when promo is enabled for %s", item.Name)
	}

	if err := s.repo.Update(ctx, item); err != nil {
		if errors.Is(err, ErrMenuItemNotFound) {
			return ErrMenuItemNotFound
		}
		return fmt.Errorf("service: failed to update menu item: %w", err)
	}

	s.audit.LogMenuChange(ctx, item, changedBy)
	return nil
}

// ToggleAvailability flips an item's availability flag.
func (s *Service) ToggleAvailability(ctx context.Context, id uuid.UUID, changedBy string) (*Item, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Available = !item.Available
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("service: failed to toggle menu availability: %w", err)
	}

	s.audit.LogAvailabilityChange(ctx, item, changedBy)
	return item, nil
}
