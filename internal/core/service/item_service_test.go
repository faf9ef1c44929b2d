package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/docflow/approvals/internal/core/domain"
	"github.com/docflow/approvals/internal/core/policy"
	"github.com/docflow/approvals/internal/core/ports"
	"github.com/docflow/approvals/internal/infrastructure/apiclient"
	"github.com/docflow/approvals/internal/infrastructure/session"
	"github.com/docflow/approvals/internal/testutil/fakeapi"
)

var fixedNow = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

func newItemService(g *stubItemGateway, r *stubResources, z ports.ImageResizer) *ItemService {
	svc := NewItemService(g, r, z, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

var (
	adminViewer = ports.Viewer{User: domain.User{ID: "admin-1", Role: domain.RoleAdmin}, HasValidToken: true}
	userViewer  = ports.Viewer{User: domain.User{ID: "user-1", Role: domain.RoleUser}, HasValidToken: true}
)

func TestItemService_Create_MirrorsNetoIntoTezina(t *testing.T) {
	g := &stubItemGateway{}
	svc := newItemService(g, &stubResources{}, nil)

	item, err := svc.Create(context.Background(), ports.CreateItemInput{
		Title:  "  Delivery note ",
		Code:   "A1",
		Neto:   "150",
		PdfURL: "/uploads/a1.pdf",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if item.ID == "" {
		t.Fatal("expected created item")
	}
	if len(g.created) != 1 {
		t.Fatalf("expected one create call, got %d", len(g.created))
	}

	sent := g.created[0]
	if sent.Neto != 150 || sent.Tezina != 150 {
		t.Fatalf("neto/tezina = %v/%v, want 150/150", sent.Neto, sent.Tezina)
	}
	if sent.Title != "Delivery note" {
		t.Fatalf("title not trimmed: %q", sent.Title)
	}
	if !sent.CreationTime.Equal(fixedNow) {
		t.Fatalf("creationTime = %v, want %v", sent.CreationTime, fixedNow)
	}
}

func TestItemService_Create_KeepsExplicitCreationTime(t *testing.T) {
	g := &stubItemGateway{}
	svc := newItemService(g, &stubResources{}, nil)
	when := time.Date(2023, 12, 24, 8, 0, 0, 0, time.UTC)

	if _, err := svc.Create(context.Background(), ports.CreateItemInput{
		Title: "t", Code: "c", PdfURL: "/p.pdf", CreationTime: when,
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !g.created[0].CreationTime.Equal(when) {
		t.Fatalf("creationTime overwritten: %v", g.created[0].CreationTime)
	}
	if g.created[0].Neto != 0 || g.created[0].Tezina != 0 {
		t.Fatalf("empty neto should submit zero, got %+v", g.created[0])
	}
}

func TestItemService_Create_Validation(t *testing.T) {
	valid := ports.CreateItemInput{Title: "t", Code: "c", Neto: "1", PdfURL: "/p.pdf"}

	tests := []struct {
		name   string
		mutate func(*ports.CreateItemInput)
		field  string
	}{
		{"blank title", func(in *ports.CreateItemInput) { in.Title = "   " }, "title"},
		{"empty code", func(in *ports.CreateItemInput) { in.Code = "" }, "code"},
		{"whitespace pdfUrl", func(in *ports.CreateItemInput) { in.PdfURL = "\t\n" }, "pdfUrl"},
		{"non-numeric neto", func(in *ports.CreateItemInput) { in.Neto = "15a" }, "neto"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &stubItemGateway{}
			svc := newItemService(g, &stubResources{}, nil)

			in := valid
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), in)

			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(ve.Fields) != 1 || ve.Fields[0].Field != tt.field {
				t.Fatalf("unexpected fields %+v", ve.Fields)
			}
			if len(g.created) != 0 {
				t.Fatal("no request may be made when validation fails")
			}
		})
	}
}

func TestItemService_Approve_RefetchesList(t *testing.T) {
	api := fakeapi.New(t)
	user := api.AddUser("user@example.com", "secret1", domain.RoleUser)
	api.AddItem(domain.Item{ID: "abc123", Title: "Delivery note", Code: "A1", ApprovalStatus: domain.StatusPending})

	store := session.NewMemoryStore()
	_ = store.Set(context.Background(), api.Token(user.ID))
	client, err := apiclient.New(apiclient.Config{BaseURL: api.URL()}, store, zerolog.Nop())
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	svc := NewItemService(client, client, nil, zerolog.Nop())

	before, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	target, err := domain.FindItem(before, "abc123")
	if err != nil {
		t.Fatalf("FindItem: %v", err)
	}

	after, err := svc.Approve(context.Background(), *target, "")
	if err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}
	got, err := domain.FindItem(after, "abc123")
	if err != nil {
		t.Fatalf("approved item missing from re-fetched list: %v", err)
	}
	if got.ApprovalStatus != domain.StatusApproved {
		t.Fatalf("approvalStatus = %q, want approved", got.ApprovalStatus)
	}
	if got.ApprovedBy == nil || got.ApprovedBy.ID != user.ID {
		t.Fatalf("approvedBy not set: %+v", got.ApprovedBy)
	}
}

func TestItemService_Approve_TerminalRefusedLocally(t *testing.T) {
	g := &stubItemGateway{}
	svc := newItemService(g, &stubResources{}, nil)

	for _, st := range []domain.ApprovalStatus{domain.StatusApproved, domain.StatusRejected} {
		_, err := svc.Approve(context.Background(), domain.Item{ID: "i1", ApprovalStatus: st}, "")
		if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("%s: expected ErrInvalidTransition, got %v", st, err)
		}
	}
	if len(g.approved) != 0 {
		t.Fatal("approve must not be sent for terminal items")
	}
}

func TestItemService_Approve_PropagatesServerError(t *testing.T) {
	g := &stubItemGateway{err: &domain.RequestError{Kind: domain.KindHTTP, Status: 422, Message: "item is not pending"}}
	svc := newItemService(g, &stubResources{}, nil)

	_, err := svc.Approve(context.Background(), domain.Item{ID: "i1"}, "")
	if domain.HTTPStatus(err) != 422 {
		t.Fatalf("expected 422, got %v", err)
	}
	if g.fetches != 0 {
		t.Fatal("list must not be re-fetched after a failed approve")
	}
}

func TestItemService_Delete(t *testing.T) {
	item := domain.Item{ID: "i1", Code: "A1", ApprovalStatus: domain.StatusPending}

	t.Run("non-admin is refused", func(t *testing.T) {
		g := &stubItemGateway{items: []domain.Item{item}}
		svc := newItemService(g, &stubResources{}, nil)

		_, err := svc.Delete(context.Background(), userViewer, item, "")
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if len(g.deleted) != 0 {
			t.Fatal("delete must not be sent for non-admins")
		}
	})

	t.Run("admin deletes and re-fetches", func(t *testing.T) {
		g := &stubItemGateway{items: []domain.Item{item, {ID: "i2", Code: "A1"}}}
		svc := newItemService(g, &stubResources{}, nil)

		items, err := svc.Delete(context.Background(), adminViewer, item, " A1 ")
		if err != nil {
			t.Fatalf("Delete returned error: %v", err)
		}
		if len(items) != 1 || items[0].ID != "i2" {
			t.Fatalf("unexpected list after delete: %+v", items)
		}
		if g.lastFilter != "A1" {
			t.Fatalf("re-fetch should keep the filter, got %q", g.lastFilter)
		}
	})
}

func TestItemService_View_PairsActions(t *testing.T) {
	g := &stubItemGateway{items: []domain.Item{
		{ID: "p", ApprovalStatus: domain.StatusPending},
		{ID: "a", ApprovalStatus: domain.StatusApproved, ApprovedBy: &domain.UserRef{ID: "u"}},
	}}
	svc := newItemService(g, &stubResources{}, nil)

	views, err := svc.View(context.Background(), userViewer, "")
	if err != nil {
		t.Fatalf("View returned error: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}
	if !views[0].Actions.ShowApproveAction || views[0].Actions.ShowDeleteAction {
		t.Fatalf("pending item actions wrong: %+v", views[0].Actions)
	}
	if views[1].Actions.ShowApproveAction || !views[1].Actions.ShowApprovalDetails {
		t.Fatalf("approved item actions wrong: %+v", views[1].Actions)
	}
}

func TestItemService_FetchPhoto(t *testing.T) {
	item := domain.Item{
		ID:                 "i1",
		ApprovalStatus:     domain.StatusApproved,
		ApprovalPhotoFront: &domain.PhotoRef{URL: ptr("/uploads/front.jpg")},
	}
	res := &stubResources{files: map[string]ports.Resource{
		"https://api.test/uploads/front.jpg": {Data: []byte("jpeg"), ContentType: "image/jpeg"},
	}}

	t.Run("requires a token", func(t *testing.T) {
		svc := newItemService(&stubItemGateway{}, res, nil)
		_, err := svc.FetchPhoto(context.Background(), ports.Viewer{}, item, policy.SlotFront, false)
		if !errors.Is(err, domain.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("missing slot", func(t *testing.T) {
		svc := newItemService(&stubItemGateway{}, res, nil)
		_, err := svc.FetchPhoto(context.Background(), userViewer, item, policy.SlotBack, false)
		if !errors.Is(err, domain.ErrResourceMissing) {
			t.Fatalf("expected ErrResourceMissing, got %v", err)
		}
	})

	t.Run("full size and thumbnail", func(t *testing.T) {
		z := &stubResizer{}
		svc := newItemService(&stubItemGateway{}, res, z)

		full, err := svc.FetchPhoto(context.Background(), userViewer, item, policy.SlotFront, false)
		if err != nil || string(full.Data) != "jpeg" {
			t.Fatalf("full photo: %v, %+v", err, full)
		}
		thumb, err := svc.FetchPhoto(context.Background(), userViewer, item, policy.SlotFront, true)
		if err != nil || string(thumb.Data) != "thumb" {
			t.Fatalf("thumbnail: %v, %+v", err, thumb)
		}
		if z.calls != 1 {
			t.Fatalf("resizer calls = %d, want 1", z.calls)
		}
	})
}

func TestItemService_FetchPDF(t *testing.T) {
	res := &stubResources{files: map[string]ports.Resource{
		"https://api.test/uploads/a1.pdf": {Data: []byte("%PDF"), ContentType: "application/pdf"},
	}}
	svc := newItemService(&stubItemGateway{}, res, nil)

	pdf, err := svc.FetchPDF(context.Background(), domain.Item{PdfURL: "/uploads/a1.pdf"})
	if err != nil {
		t.Fatalf("FetchPDF returned error: %v", err)
	}
	if pdf.ContentType != "application/pdf" {
		t.Fatalf("unexpected content type %q", pdf.ContentType)
	}

	if _, err := svc.FetchPDF(context.Background(), domain.Item{}); !errors.Is(err, domain.ErrResourceMissing) {
		t.Fatalf("expected ErrResourceMissing, got %v", err)
	}
}
