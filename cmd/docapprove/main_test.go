package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sethvargo/go-envconfig"

	"github.com/docflow/approvals/internal/core/domain"
	"github.com/docflow/approvals/internal/testutil/fakeapi"
)

type cli struct {
	t       *testing.T
	api     *fakeapi.Server
	session string
	env     map[string]string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	return &cli{
		t:       t,
		api:     fakeapi.New(t),
		session: filepath.Join(t.TempDir(), "session.json"),
	}
}

func (c *cli) run(args ...string) (int, string, string) {
	c.t.Helper()
	vars := map[string]string{
		"ENV":             "test",
		"LOG_LEVEL":       "error",
		"API_BASE_URL":    c.api.URL(),
		"SESSION_BACKEND": "file",
		"SESSION_PATH":    c.session,
	}
	for k, v := range c.env {
		vars[k] = v
	}
	env := envconfig.MapLookuper(vars)
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, env, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	code, out, errOut := c.run(args...)
	if code != 0 {
		c.t.Fatalf("%v: exit %d, stderr: %s", args, code, errOut)
	}
	return out
}

func (c *cli) login(email, password string) {
	c.t.Helper()
	c.mustRun("login", "-email", email, "-password", password)
}

func ptr[T any](v T) *T { return &v }

func TestCLI_Usage(t *testing.T) {
	c := newCLI(t)

	if code, _, _ := c.run(); code != 2 {
		t.Fatalf("no command: exit %d, want 2", code)
	}
	code, _, errOut := c.run("frobnicate")
	if code != 2 || !strings.Contains(errOut, `unknown command "frobnicate"`) {
		t.Fatalf("unknown command: exit %d, stderr %q", code, errOut)
	}
	if code, _, _ := c.run("items", "approve"); code != 2 {
		t.Fatalf("missing id: exit %d, want 2", code)
	}
}

func TestCLI_LoginWhoamiLogout(t *testing.T) {
	c := newCLI(t)
	c.api.AddUser("admin@example.com", "secret1", domain.RoleAdmin)

	out := c.mustRun("login", "-email", "admin@example.com", "-password", "secret1")
	if !strings.Contains(out, "Logged in as admin@example.com (admin).") {
		t.Fatalf("unexpected login output %q", out)
	}

	out = c.mustRun("whoami")
	if !strings.Contains(out, "admin@example.com") {
		t.Fatalf("unexpected whoami output %q", out)
	}

	c.mustRun("logout")
	code, _, errOut := c.run("whoami")
	if code != 1 || !strings.Contains(errOut, "Please log in first.") {
		t.Fatalf("whoami after logout: exit %d, stderr %q", code, errOut)
	}
}

func TestCLI_LoginWrongPassword(t *testing.T) {
	c := newCLI(t)
	c.api.AddUser("admin@example.com", "secret1", domain.RoleAdmin)

	code, _, errOut := c.run("login", "-email", "admin@example.com", "-password", "nope")
	if code != 1 || !strings.Contains(errOut, "Invalid email or password.") {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
}

func TestCLI_ApproveRefreshesList(t *testing.T) {
	c := newCLI(t)
	c.api.AddUser("user@example.com", "secret1", domain.RoleUser)
	c.api.AddItem(domain.Item{ID: "abc123", Title: "Delivery note", Code: "A1", Neto: 150, Tezina: 150})
	c.login("user@example.com", "secret1")

	out := c.mustRun("items", "list")
	if !strings.Contains(out, "na čekanju") || !strings.Contains(out, "approve") {
		t.Fatalf("pending item should offer approve: %q", out)
	}
	if strings.Contains(out, "delete") {
		t.Fatalf("non-admin must not be offered delete: %q", out)
	}

	out = c.mustRun("items", "approve", "abc123")
	if !strings.Contains(out, "Approved item abc123.") || !strings.Contains(out, "odobreno") {
		t.Fatalf("unexpected approve output %q", out)
	}

	code, _, errOut := c.run("items", "approve", "abc123")
	if code != 1 || !strings.Contains(errOut, "This item is no longer pending.") {
		t.Fatalf("second approve: exit %d, stderr %q", code, errOut)
	}
}

func TestCLI_DeleteNotOfferedToNonAdmin(t *testing.T) {
	c := newCLI(t)
	c.api.AddUser("user@example.com", "secret1", domain.RoleUser)
	item := c.api.AddItem(domain.Item{Title: "Delivery note", Code: "A1"})
	c.login("user@example.com", "secret1")

	code, _, errOut := c.run("items", "delete", item.ID)
	if code != 1 || !strings.Contains(errOut, "You are not allowed to do that.") {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	if _, ok := c.api.LastRequest(http.MethodDelete, "/api/items/"+item.ID); ok {
		t.Fatal("delete request must not be sent")
	}
	if _, ok := c.api.Item(item.ID); !ok {
		t.Fatal("item must still exist")
	}
}

func TestCLI_AdminDeletesItem(t *testing.T) {
	c := newCLI(t)
	c.api.AddUser("admin@example.com", "secret1", domain.RoleAdmin)
	item := c.api.AddItem(domain.Item{Title: "Delivery note", Code: "A1"})
	c.login("admin@example.com", "secret1")

	out := c.mustRun("items", "delete", item.ID)
	if !strings.Contains(out, "Deleted item "+item.ID) || !strings.Contains(out, "No items.") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCLI_CreateItemValidation(t *testing.T) {
	c := newCLI(t)
	c.api.AddUser("user@example.com", "secret1", domain.RoleUser)
	c.login("user@example.com", "secret1")

	code, _, errOut := c.run("items", "create", "-title", "  ", "-code", "A1", "-pdf", "/uploads/a.pdf", "-neto", "150")
	if code != 1 || !strings.Contains(errOut, "title is required") {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	if _, ok := c.api.LastRequest(http.MethodPost, "/api/items"); ok {
		t.Fatal("invalid form must not be submitted")
	}

	out := c.mustRun("items", "create", "-title", "Note", "-code", "A1", "-pdf", "/uploads/a.pdf", "-neto", "150")
	if !strings.Contains(out, "Created item") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCLI_SessionExpiryClearsToken(t *testing.T) {
	c := newCLI(t)
	c.api.AddUser("user@example.com", "secret1", domain.RoleUser)
	c.login("user@example.com", "secret1")

	c.api.RevokeTokens()
	code, _, errOut := c.run("items", "list")
	if code != 1 || !strings.Contains(errOut, "Your session has expired.") {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}

	data, err := os.ReadFile(c.session)
	if err != nil {
		t.Fatalf("read session file: %v", err)
	}
	if strings.Contains(string(data), "eyJ") {
		t.Fatalf("token still persisted: %s", data)
	}

	before := len(c.api.Requests())
	code, _, errOut = c.run("items", "list")
	if code != 1 || !strings.Contains(errOut, "Please log in first.") {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	if len(c.api.Requests()) != before {
		t.Fatal("no request may be sent without a token")
	}
}

func TestCLI_ShowItemLocation(t *testing.T) {
	c := newCLI(t)
	c.api.AddUser("user@example.com", "secret1", domain.RoleUser)
	c.api.AddItem(domain.Item{
		ID:             "done1",
		Title:          "Approved note",
		Code:           "A1",
		ApprovalStatus: domain.StatusApproved,
		ApprovedBy:     &domain.UserRef{ID: "u9", FirstName: "Ana", LastName: "Kovač"},
		ApprovalLocation: &domain.GeoLocation{
			Coordinates: &domain.Coordinates{Latitude: ptr(45.815)},
		},
		ApprovalPhotoFront: &domain.PhotoRef{URL: ptr("/uploads/front.jpg")},
	})
	c.login("user@example.com", "secret1")

	out := c.mustRun("items", "show", "done1")
	for _, want := range []string{"Ana Kovač", "Location:", "not available", "/uploads/front.jpg"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Photo back") {
		t.Fatalf("back photo slot must not be shown:\n%s", out)
	}
}

func TestCLI_UsersAdminOnly(t *testing.T) {
	c := newCLI(t)
	c.api.AddUser("admin@example.com", "secret1", domain.RoleAdmin)
	c.api.AddUser("user@example.com", "secret1", domain.RoleUser)

	c.login("admin@example.com", "secret1")
	out := c.mustRun("users", "create", "-email", "new@example.com", "-password", "secret2",
		"-first", "Iva", "-last", "Horvat", "-role", "bot", "-codes", "A1,B2")
	if !strings.Contains(out, "new@example.com") || !strings.Contains(out, "Actions: create, update, delete") {
		t.Fatalf("unexpected output %q", out)
	}

	c.mustRun("logout")
	c.login("user@example.com", "secret1")
	code, _, errOut := c.run("users", "delete", "64b7f1c2e4b0a1a2b3c4d5e6")
	if code != 1 || !strings.Contains(errOut, "You are not allowed to do that.") {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
	if _, ok := c.api.LastRequest(http.MethodDelete, "/api/users/64b7f1c2e4b0a1a2b3c4d5e6"); ok {
		t.Fatal("delete request must not be sent for non-admins")
	}
}

func TestCLI_WritesMetricsFile(t *testing.T) {
	c := newCLI(t)
	c.api.AddUser("user@example.com", "secret1", domain.RoleUser)
	path := filepath.Join(t.TempDir(), "docapprove.prom")
	c.env = map[string]string{"METRICS_FILE": path}

	c.login("user@example.com", "secret1")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read metrics file: %v", err)
	}
	want := `docapprove_client_requests_total{method="POST",outcome="2xx"}`
	if !strings.Contains(string(data), want) {
		t.Fatalf("metrics file missing %s:\n%s", want, data)
	}

	// A failing command still exports.
	c.api.RevokeTokens()
	_ = os.Remove(path)
	if code, _, _ := c.run("items", "list"); code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("read metrics file after failure: %v", err)
	}
	if !strings.Contains(string(data), `docapprove_session_invalidations_total{reason="unauthorized"}`) {
		t.Fatalf("metrics file missing session invalidation:\n%s", data)
	}
}
