// Package fakeapi is an in-process fake of the approval backend used by
// tests. It implements the /api routes the client consumes, issues HS256
// bearer tokens, enforces admin-only routes and records every request.
package fakeapi

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/docflow/approvals/internal/core/domain"
)

// Request is one recorded inbound request.
type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	RequestID     string
}

type account struct {
	user         domain.User
	passwordHash []byte
}

type failure struct {
	status  int
	message string
}

type file struct {
	data        []byte
	contentType string
}

// Server is a running fake backend.
type Server struct {
	mu       sync.Mutex
	secret   string
	users    map[string]*account
	items    map[string]*domain.Item
	files    map[string]file
	requests []Request
	failures map[string]failure
	now      func() time.Time

	echo *echo.Echo
	http *httptest.Server
}

// New starts a fake backend that is shut down when t finishes.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		secret:   "fake-secret",
		users:    make(map[string]*account),
		items:    make(map[string]*domain.Item),
		files:    make(map[string]file),
		failures: make(map[string]failure),
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.echo = s.routes()
	s.http = httptest.NewServer(s.echo)
	t.Cleanup(s.http.Close)
	return s
}

// URL is the base URL of the fake, without the /api prefix.
func (s *Server) URL() string { return s.http.URL }

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(s.record)

	api := e.Group("/api")
	api.POST("/auth/login", s.login)
	api.POST("/auth/logout", s.logout, s.auth)

	api.GET("/items", s.listItems, s.auth)
	api.POST("/items", s.createItem, s.auth)
	api.DELETE("/items/:id", s.deleteItem, s.auth, adminOnly)
	api.POST("/items/:id/approve", s.approveItem, s.auth)

	api.GET("/users/profile", s.profile, s.auth)
	api.PATCH("/users/profile", s.updateProfile, s.auth)
	api.GET("/users", s.listUsers, s.auth, adminOnly)
	api.POST("/users", s.createUser, s.auth, adminOnly)
	api.PATCH("/users/:id", s.updateUser, s.auth, adminOnly)
	api.DELETE("/users/:id", s.deleteUser, s.auth, adminOnly)

	e.GET("/uploads/*", s.serveFile, s.auth)
	return e
}

// AddUser registers an account directly and returns it.
func (s *Server) AddUser(email, password string, role domain.Role) domain.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	u := domain.User{
		ID:         primitive.NewObjectID().Hex(),
		Email:      email,
		Role:       role,
		Codes:      []string{},
		IsVerified: true,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &account{user: u, passwordHash: hash}
	return u
}

// AddItem stores item, assigning an id when it has none.
func (s *Server) AddItem(item domain.Item) domain.Item {
	if item.ID == "" {
		item.ID = primitive.NewObjectID().Hex()
	}
	if item.ApprovalStatus == "" {
		item.ApprovalStatus = domain.StatusPending
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	clone := item
	s.items[item.ID] = &clone
	return item
}

// Item returns the stored item with id.
func (s *Server) Item(id string) (domain.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return domain.Item{}, false
	}
	return *it, true
}

// User returns the stored user with id.
func (s *Server) User(id string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.users[id]
	if !ok {
		return domain.User{}, false
	}
	return a.user, true
}

// AddFile serves data at path (e.g. /uploads/front.jpg) to authenticated callers.
func (s *Server) AddFile(path, contentType string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = file{data: data, contentType: contentType}
}

// Token mints a valid token for the user with id.
func (s *Server) Token(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signLocked(userID, time.Hour)
}

// RevokeTokens invalidates every token issued so far.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = primitive.NewObjectID().Hex()
}

// FailNext makes the next request to method+path answer with status.
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: message}
}

// Requests returns a copy of the request log.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request to method+path.
func (s *Server) LastRequest(method, path string) (Request, bool) {
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return Request{}, false
}

func (s *Server) signLocked(userID string, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": s.now().Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		panic(err)
	}
	return signed
}

// sortedItemsLocked returns items ordered by id, which follows creation order.
func (s *Server) sortedItemsLocked() []domain.Item {
	out := make([]domain.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) serveFile(c echo.Context) error {
	s.mu.Lock()
	f, ok := s.files[c.Request().URL.Path]
	s.mu.Unlock()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	}
	return c.Blob(http.StatusOK, f.contentType, f.data)
}
