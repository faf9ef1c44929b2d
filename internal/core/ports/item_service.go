package ports

import (
	"context"
	"time"

	"github.com/docflow/approvals/internal/core/domain"
	"github.com/docflow/approvals/internal/core/policy"
)

// CreateItemInput carries the item form as typed by the user. Neto is the raw
// text of the numeric field; tezina has no input of its own and mirrors neto.
type CreateItemInput struct {
	Title        string `json:"title" validate:"required"`
	Code         string `json:"code" validate:"required"`
	Registracija string `json:"registracija"`
	Neto         string `json:"neto" validate:"omitempty,numeric"`
	PdfURL       string `json:"pdfUrl" validate:"required"`
	// CreationTime defaults to now when zero.
	CreationTime time.Time `json:"creationTime"`
}

// ItemView is an item paired with the actions its viewer is offered.
type ItemView struct {
	Item    domain.Item
	Actions policy.ItemActions
}

// ImageResizer shrinks a fetched photo for preview.
type ImageResizer interface {
	Thumbnail(res *Resource) (*Resource, error)
}

// ItemService defines the item screens' use cases. Mutations return the
// re-fetched list so callers never patch local state.
type ItemService interface {
	List(ctx context.Context, filterCode string) ([]domain.Item, error)
	View(ctx context.Context, viewer Viewer, filterCode string) ([]ItemView, error)
	Create(ctx context.Context, input CreateItemInput) (*domain.Item, error)
	Approve(ctx context.Context, target domain.Item, filterCode string) ([]domain.Item, error)
	Delete(ctx context.Context, viewer Viewer, target domain.Item, filterCode string) ([]domain.Item, error)
	FetchPhoto(ctx context.Context, viewer Viewer, item domain.Item, slot policy.PhotoSlot, thumbnail bool) (*Resource, error)
	FetchPDF(ctx context.Context, item domain.Item) (*Resource, error)
}
