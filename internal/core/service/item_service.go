package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/docflow/approvals/internal/core/domain"
	"github.com/docflow/approvals/internal/core/policy"
	"github.com/docflow/approvals/internal/core/ports"
)

type ItemService struct {
	items     ports.ItemGateway
	resources ports.ResourceFetcher
	resizer   ports.ImageResizer
	now       func() time.Time
	logger    zerolog.Logger
}

// NewItemService wires the item screens. resizer may be nil, in which case
// thumbnails are served at full size.
func NewItemService(items ports.ItemGateway, resources ports.ResourceFetcher, resizer ports.ImageResizer, logger zerolog.Logger) *ItemService {
	return &ItemService{
		items:     items,
		resources: resources,
		resizer:   resizer,
		now:       time.Now,
		logger:    logger.With().Str("component", "items").Logger(),
	}
}

func (s *ItemService) List(ctx context.Context, filterCode string) ([]domain.Item, error) {
	return s.items.FetchItems(ctx, strings.TrimSpace(filterCode))
}

// View lists items with the actions the viewer is offered on each.
func (s *ItemService) View(ctx context.Context, viewer ports.Viewer, filterCode string) ([]ports.ItemView, error) {
	items, err := s.List(ctx, filterCode)
	if err != nil {
		return nil, err
	}
	views := make([]ports.ItemView, 0, len(items))
	for _, it := range items {
		views = append(views, ports.ItemView{
			Item:    it,
			Actions: policy.Evaluate(it, viewer.Role(), viewer.HasValidToken),
		})
	}
	return views, nil
}

// Create validates the form and submits it. Tezina is always sent equal to
// neto; an empty creation time becomes the current UTC time.
func (s *ItemService) Create(ctx context.Context, input ports.CreateItemInput) (*domain.Item, error) {
	in := input
	in.Title = strings.TrimSpace(in.Title)
	in.Code = strings.TrimSpace(in.Code)
	in.Registracija = strings.TrimSpace(in.Registracija)
	in.Neto = strings.TrimSpace(in.Neto)
	in.PdfURL = strings.TrimSpace(in.PdfURL)

	if err := validateStruct(in); err != nil {
		return nil, err
	}

	neto, err := parseNeto(in.Neto)
	if err != nil {
		return nil, err
	}

	created := in.CreationTime
	if created.IsZero() {
		created = s.now().UTC()
	}

	item, err := s.items.CreateItem(ctx, domain.NewItem{
		Title:        in.Title,
		Code:         in.Code,
		Registracija: in.Registracija,
		Neto:         neto,
		Tezina:       neto,
		PdfURL:       in.PdfURL,
		CreationTime: created,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("code", in.Code).Msg("failed to create item")
		return nil, err
	}

	s.logger.Info().Str("item_id", item.ID).Str("code", item.Code).Msg("item created")
	return item, nil
}

func parseNeto(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, domain.NewValidationError("neto", "neto must be a number")
	}
	return v, nil
}

// Approve approves target and returns the re-fetched list. An item whose
// known status is already terminal is refused without a request.
func (s *ItemService) Approve(ctx context.Context, target domain.Item, filterCode string) ([]domain.Item, error) {
	if err := domain.ValidateID("id", target.ID); err != nil {
		return nil, err
	}
	if target.ApprovalStatus != "" && !target.ApprovalStatus.CanTransitionTo(domain.StatusApproved) {
		return nil, fmt.Errorf("approve %s (%s): %w", target.ID, target.ApprovalStatus, domain.ErrInvalidTransition)
	}

	if err := s.items.ApproveItem(ctx, target.ID); err != nil {
		s.logger.Error().Err(err).Str("item_id", target.ID).Msg("failed to approve item")
		return nil, err
	}
	s.logger.Info().Str("item_id", target.ID).Msg("item approved")

	return s.List(ctx, filterCode)
}

// Delete removes target when the viewer is offered the delete action and
// returns the re-fetched list.
func (s *ItemService) Delete(ctx context.Context, viewer ports.Viewer, target domain.Item, filterCode string) ([]domain.Item, error) {
	if err := domain.ValidateID("id", target.ID); err != nil {
		return nil, err
	}
	if !policy.Evaluate(target, viewer.Role(), viewer.HasValidToken).ShowDeleteAction {
		return nil, domain.ErrForbidden
	}

	if err := s.items.DeleteItem(ctx, target.ID); err != nil {
		s.logger.Error().Err(err).Str("item_id", target.ID).Msg("failed to delete item")
		return nil, err
	}
	s.logger.Info().Str("item_id", target.ID).Str("role", string(viewer.Role())).Msg("item deleted")

	return s.List(ctx, filterCode)
}

// FetchPhoto downloads one approval photo. Only slots the policy shows to
// the viewer can be fetched.
func (s *ItemService) FetchPhoto(ctx context.Context, viewer ports.Viewer, item domain.Item, slot policy.PhotoSlot, thumbnail bool) (*ports.Resource, error) {
	if !viewer.HasValidToken {
		return nil, domain.ErrNotAuthenticated
	}
	if !policy.Evaluate(item, viewer.Role(), viewer.HasValidToken).PhotoVisible(slot) {
		return nil, fmt.Errorf("%s photo: %w", slot, domain.ErrResourceMissing)
	}

	res, err := s.fetch(ctx, *policy.Photo(item, slot).URL)
	if err != nil {
		return nil, err
	}
	if !thumbnail || s.resizer == nil {
		return res, nil
	}
	thumb, err := s.resizer.Thumbnail(res)
	if err != nil {
		return nil, fmt.Errorf("%s photo thumbnail: %w", slot, err)
	}
	return thumb, nil
}

// FetchPDF downloads the item's document.
func (s *ItemService) FetchPDF(ctx context.Context, item domain.Item) (*ports.Resource, error) {
	if strings.TrimSpace(item.PdfURL) == "" {
		return nil, fmt.Errorf("pdf: %w", domain.ErrResourceMissing)
	}
	return s.fetch(ctx, item.PdfURL)
}

func (s *ItemService) fetch(ctx context.Context, relative string) (*ports.Resource, error) {
	abs, err := s.resources.ResolveURL(relative)
	if err != nil {
		return nil, err
	}
	return s.resources.FetchResource(ctx, abs)
}

var _ ports.ItemService = (*ItemService)(nil)
