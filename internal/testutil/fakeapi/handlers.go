package fakeapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/docflow/approvals/internal/core/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid payload"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acct := range s.users {
		if !strings.EqualFold(acct.user.Email, req.Email) {
			continue
		}
		if bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)) != nil {
			break
		}
		return c.JSON(http.StatusOK, loginResponse{
			Token: s.signLocked(acct.user.ID, time.Hour),
			User:  acct.user,
		})
	}
	return c.JSON(http.StatusUnauthorized, map[string]string{"message": "invalid credentials"})
}

func (s *Server) logout(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *Server) listItems(c echo.Context) error {
	code := c.QueryParam("code")

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Item{}
	for _, it := range s.sortedItemsLocked() {
		if code != "" && it.Code != code {
			continue
		}
		out = append(out, it)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createItem(c echo.Context) error {
	var req domain.NewItem
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid payload"})
	}
	if req.Title == "" || req.Code == "" || req.PdfURL == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"message": "missing required fields",
			"details": []string{"title", "code", "pdfUrl"},
		})
	}

	created := req.CreationTime
	item := domain.Item{
		ID:             primitive.NewObjectID().Hex(),
		Title:          req.Title,
		Code:           req.Code,
		Registracija:   req.Registracija,
		Neto:           req.Neto,
		Tezina:         req.Tezina,
		PdfURL:         req.PdfURL,
		CreationTime:   &created,
		ApprovalStatus: domain.StatusPending,
	}

	s.mu.Lock()
	s.items[item.ID] = &item
	s.mu.Unlock()

	return c.JSON(http.StatusCreated, item)
}

func (s *Server) deleteItem(c echo.Context) error {
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "item not found"})
	}
	delete(s.items, id)
	return c.JSON(http.StatusOK, map[string]string{"message": "item deleted"})
}

func (s *Server) approveItem(c echo.Context) error {
	id := c.Param("id")
	userID, _ := c.Get("user_id").(string)

	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "item not found"})
	}
	if !it.ApprovalStatus.CanTransitionTo(domain.StatusApproved) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"message": "item is not pending"})
	}

	approver := s.users[userID].user
	now := s.now()
	it.ApprovalStatus = domain.StatusApproved
	it.ApprovedBy = &domain.UserRef{
		ID:        approver.ID,
		FirstName: approver.FirstName,
		LastName:  approver.LastName,
		Email:     approver.Email,
	}
	it.ApprovalDate = &now
	return c.JSON(http.StatusOK, it)
}

func (s *Server) profile(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.users[userID].user)
}

func (s *Server) updateProfile(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	return s.applyUpdate(c, userID)
}

func (s *Server) listUsers(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.User, 0, len(s.users))
	for _, a := range s.users {
		out = append(out, a.user)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createUser(c echo.Context) error {
	var req domain.NewUser
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid payload"})
	}

	s.mu.Lock()
	for _, a := range s.users {
		if strings.EqualFold(a.user.Email, req.Email) {
			s.mu.Unlock()
			return c.JSON(http.StatusConflict, map[string]string{"message": "user already exists"})
		}
	}
	s.mu.Unlock()

	u := s.AddUser(req.Email, req.Password, req.Role)

	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.users[u.ID]
	acct.user.FirstName = req.FirstName
	acct.user.LastName = req.LastName
	acct.user.Company = req.Company
	if req.Codes != nil {
		acct.user.Codes = req.Codes
	}
	acct.user.IsVerified = false
	return c.JSON(http.StatusCreated, acct.user)
}

func (s *Server) updateUser(c echo.Context) error {
	return s.applyUpdate(c, c.Param("id"))
}

func (s *Server) deleteUser(c echo.Context) error {
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "user not found"})
	}
	delete(s.users, id)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) applyUpdate(c echo.Context, id string) error {
	var upd domain.UserUpdate
	if err := c.Bind(&upd); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid payload"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.users[id]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "user not found"})
	}
	if upd.FirstName != nil {
		acct.user.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		acct.user.LastName = *upd.LastName
	}
	if upd.Company != nil {
		acct.user.Company = *upd.Company
	}
	if upd.Role != nil {
		acct.user.Role = *upd.Role
	}
	if upd.Codes != nil {
		acct.user.Codes = *upd.Codes
	}
	return c.JSON(http.StatusOK, acct.user)
}
