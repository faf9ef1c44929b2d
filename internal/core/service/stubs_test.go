package service

import (
	"context"
	"strings"

	"github.com/docflow/approvals/internal/core/domain"
	"github.com/docflow/approvals/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub gateways
// ---------------------------------------------------------------------------

type stubItemGateway struct {
	items      []domain.Item
	created    []domain.NewItem
	approved   []string
	deleted    []string
	fetches    int
	lastFilter string
	err        error // if set, every call returns it
}

func (g *stubItemGateway) FetchItems(_ context.Context, filterCode string) ([]domain.Item, error) {
	g.fetches++
	g.lastFilter = filterCode
	if g.err != nil {
		return nil, g.err
	}
	out := make([]domain.Item, 0, len(g.items))
	for _, it := range g.items {
		if filterCode == "" || it.Code == filterCode {
			out = append(out, it)
		}
	}
	return out, nil
}

func (g *stubItemGateway) CreateItem(_ context.Context, item domain.NewItem) (*domain.Item, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.created = append(g.created, item)
	it := domain.Item{
		ID:             "item-new",
		Title:          item.Title,
		Code:           item.Code,
		Neto:           item.Neto,
		Tezina:         item.Tezina,
		PdfURL:         item.PdfURL,
		ApprovalStatus: domain.StatusPending,
	}
	g.items = append(g.items, it)
	return &it, nil
}

func (g *stubItemGateway) DeleteItem(_ context.Context, id string) error {
	if g.err != nil {
		return g.err
	}
	g.deleted = append(g.deleted, id)
	for i := range g.items {
		if g.items[i].ID == id {
			g.items = append(g.items[:i], g.items[i+1:]...)
			break
		}
	}
	return nil
}

func (g *stubItemGateway) ApproveItem(_ context.Context, id string) error {
	if g.err != nil {
		return g.err
	}
	g.approved = append(g.approved, id)
	for i := range g.items {
		if g.items[i].ID == id {
			g.items[i].ApprovalStatus = domain.StatusApproved
		}
	}
	return nil
}

type stubUserGateway struct {
	users   []domain.User
	created []domain.NewUser
	updates map[string]domain.UserUpdate
	deleted   []string
	deleteErr error
	fetches   int
}

func (g *stubUserGateway) FetchUsers(context.Context) ([]domain.User, error) {
	g.fetches++
	out := make([]domain.User, len(g.users))
	copy(out, g.users)
	return out, nil
}

func (g *stubUserGateway) CreateUser(_ context.Context, u domain.NewUser) (*domain.User, error) {
	g.created = append(g.created, u)
	user := domain.User{ID: "user-new", Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, Role: u.Role, Codes: u.Codes}
	g.users = append(g.users, user)
	return &user, nil
}

func (g *stubUserGateway) UpdateUser(_ context.Context, id string, upd domain.UserUpdate) (*domain.User, error) {
	if g.updates == nil {
		g.updates = make(map[string]domain.UserUpdate)
	}
	g.updates[id] = upd
	return &domain.User{ID: id}, nil
}

func (g *stubUserGateway) DeleteUser(_ context.Context, id string) error {
	if g.deleteErr != nil {
		return g.deleteErr
	}
	g.deleted = append(g.deleted, id)
	return nil
}

type stubAuthGateway struct {
	loginErr   error
	logoutErr  error
	profile    *domain.User
	profileErr error
	updates    []domain.UserUpdate
	logins     int
	profiles   int
}

func (g *stubAuthGateway) Login(_ context.Context, email, _ string) (*domain.Session, error) {
	g.logins++
	if g.loginErr != nil {
		return nil, g.loginErr
	}
	return &domain.Session{Token: "tok", User: domain.User{ID: "u1", Email: email}}, nil
}

func (g *stubAuthGateway) Logout(context.Context) error { return g.logoutErr }

func (g *stubAuthGateway) FetchCurrentUserProfile(context.Context) (*domain.User, error) {
	g.profiles++
	if g.profileErr != nil {
		return nil, g.profileErr
	}
	return g.profile, nil
}

func (g *stubAuthGateway) UpdateCurrentUserProfile(_ context.Context, upd domain.UserUpdate) (*domain.User, error) {
	g.updates = append(g.updates, upd)
	u := *g.profile
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	return &u, nil
}

type stubSessionStore struct {
	token string
	err   error
}

func (s *stubSessionStore) Get(context.Context) (string, error) { return s.token, s.err }

func (s *stubSessionStore) Set(_ context.Context, t string) error {
	s.token = t
	return nil
}

func (s *stubSessionStore) Clear(context.Context) error {
	s.token = ""
	return nil
}

type stubResources struct {
	files   map[string]ports.Resource
	fetched []string
}

func (r *stubResources) ResolveURL(relative string) (string, error) {
	return "https://api.test/" + strings.TrimLeft(relative, "/"), nil
}

func (r *stubResources) FetchResource(_ context.Context, abs string) (*ports.Resource, error) {
	r.fetched = append(r.fetched, abs)
	res, ok := r.files[abs]
	if !ok {
		return nil, &domain.RequestError{Kind: domain.KindHTTP, Status: 404, Message: "not found"}
	}
	return &res, nil
}

type stubResizer struct{ calls int }

func (r *stubResizer) Thumbnail(res *ports.Resource) (*ports.Resource, error) {
	r.calls++
	return &ports.Resource{Data: []byte("thumb"), ContentType: res.ContentType}, nil
}

type stubPhoneProvider struct {
	sent      []string
	validCode string
	confirms  int
}

func (p *stubPhoneProvider) SendCode(_ context.Context, phone string) (string, error) {
	p.sent = append(p.sent, phone)
	return "handle-" + phone, nil
}

func (p *stubPhoneProvider) ConfirmCode(_ context.Context, handle, code string) (string, error) {
	p.confirms++
	if code != p.validCode {
		return "", domain.ErrInvalidCredentials
	}
	return "id-token:" + handle, nil
}

func ptr[T any](v T) *T { return &v }
