package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/docflow/approvals/internal/core/domain"
	"github.com/docflow/approvals/internal/core/policy"
	"github.com/docflow/approvals/internal/core/ports"
)

type command func(ctx context.Context, args []string) error

func (a *app) dispatch(ctx context.Context, args []string) error {
	switch args[0] {
	case "login":
		return a.login(ctx, args[1:])
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "profile":
		return subcommand(ctx, "profile", args[1:], map[string]command{
			"update": a.profileUpdate,
		})
	case "items":
		return subcommand(ctx, "items", args[1:], map[string]command{
			"list":    a.itemsList,
			"show":    a.itemsShow,
			"create":  a.itemsCreate,
			"approve": a.itemsApprove,
			"delete":  a.itemsDelete,
			"photo":   a.itemsPhoto,
			"pdf":     a.itemsPDF,
		})
	case "users":
		return subcommand(ctx, "users", args[1:], map[string]command{
			"list":   a.usersList,
			"create": a.usersCreate,
			"update": a.usersUpdate,
			"delete": a.usersDelete,
		})
	}
	return usageError(fmt.Sprintf("unknown command %q", args[0]))
}

func subcommand(ctx context.Context, group string, args []string, cmds map[string]command) error {
	if len(args) == 0 {
		return usageError(group + ": missing subcommand")
	}
	cmd, ok := cmds[args[0]]
	if !ok {
		return usageError(fmt.Sprintf("%s: unknown subcommand %q", group, args[0]))
	}
	return cmd(ctx, args[1:])
}

// parse parses fs and returns the positional id when wantID is set. The id
// may come before or after the flags.
func parse(fs *flag.FlagSet, args []string, wantID bool) (string, error) {
	fs.SetOutput(io.Discard)

	var id string
	if wantID && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		id, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", usageError(fmt.Sprintf("%s: %v", fs.Name(), err))
	}

	rest := fs.Args()
	if wantID && id == "" && len(rest) > 0 {
		id, rest = rest[0], rest[1:]
	}
	if len(rest) > 0 {
		return "", usageError(fmt.Sprintf("%s: unexpected argument %q", fs.Name(), rest[0]))
	}
	if wantID && id == "" {
		return "", usageError(fs.Name() + ": missing <id>")
	}
	return id, nil
}

// setFlags returns the names of the flags given on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func optional(set map[string]bool, name, value string) *string {
	if !set[name] {
		return nil
	}
	return &value
}

func splitCodes(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

// --- session ---------------------------------------------------------------

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "")
	password := fs.String("password", "", "")
	if _, err := parse(fs, args, false); err != nil {
		return err
	}

	sess, err := a.auth.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s (%s).\n", sess.User.DisplayName(), sess.User.Role)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	v, err := a.auth.Viewer(ctx)
	if err != nil {
		return err
	}
	renderProfile(a.out, v.User)
	return nil
}

func (a *app) profileUpdate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("profile update", flag.ContinueOnError)
	first := fs.String("first", "", "")
	last := fs.String("last", "", "")
	company := fs.String("company", "", "")
	if _, err := parse(fs, args, false); err != nil {
		return err
	}
	set := setFlags(fs)

	u, err := a.auth.UpdateProfile(ctx, ports.UpdateProfileInput{
		FirstName: optional(set, "first", *first),
		LastName:  optional(set, "last", *last),
		Company:   optional(set, "company", *company),
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile updated.")
	renderProfile(a.out, *u)
	return nil
}

// --- items -----------------------------------------------------------------

func (a *app) itemsList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("items list", flag.ContinueOnError)
	code := fs.String("code", "", "")
	if _, err := parse(fs, args, false); err != nil {
		return err
	}

	v, err := a.auth.Viewer(ctx)
	if err != nil {
		return err
	}
	views, err := a.items.View(ctx, *v, *code)
	if err != nil {
		return err
	}
	renderItems(a.out, views)
	return nil
}

func (a *app) findItem(ctx context.Context, v *ports.Viewer, id string) (ports.ItemView, error) {
	views, err := a.items.View(ctx, *v, "")
	if err != nil {
		return ports.ItemView{}, err
	}
	for _, view := range views {
		if view.Item.ID == id {
			return view, nil
		}
	}
	return ports.ItemView{}, fmt.Errorf("item %s: %w", id, domain.ErrItemNotFound)
}

func (a *app) itemsShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("items show", flag.ContinueOnError)
	id, err := parse(fs, args, true)
	if err != nil {
		return err
	}

	v, err := a.auth.Viewer(ctx)
	if err != nil {
		return err
	}
	view, err := a.findItem(ctx, v, id)
	if err != nil {
		return err
	}
	renderItemDetails(a.out, view)
	return nil
}

func (a *app) itemsCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("items create", flag.ContinueOnError)
	title := fs.String("title", "", "")
	code := fs.String("code", "", "")
	registracija := fs.String("registracija", "", "")
	neto := fs.String("neto", "", "")
	pdf := fs.String("pdf", "", "")
	created := fs.String("created", "", "")
	if _, err := parse(fs, args, false); err != nil {
		return err
	}

	creationTime, err := parseTime(*created)
	if err != nil {
		return err
	}

	item, err := a.items.Create(ctx, ports.CreateItemInput{
		Title:        *title,
		Code:         *code,
		Registracija: *registracija,
		Neto:         *neto,
		PdfURL:       *pdf,
		CreationTime: creationTime,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created item %s (%s).\n", item.ID, item.Code)
	return nil
}

// parseTime accepts RFC 3339 or a local calendar date; empty means now.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, domain.NewValidationError("creationTime", "creationTime must be RFC 3339 or YYYY-MM-DD")
}

func (a *app) itemsApprove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("items approve", flag.ContinueOnError)
	code := fs.String("code", "", "")
	id, err := parse(fs, args, true)
	if err != nil {
		return err
	}

	v, err := a.auth.Viewer(ctx)
	if err != nil {
		return err
	}
	view, err := a.findItem(ctx, v, id)
	if err != nil {
		return err
	}

	items, err := a.items.Approve(ctx, view.Item, *code)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Approved item %s.\n", id)
	renderItems(a.out, viewsFor(*v, items))
	return nil
}

func (a *app) itemsDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("items delete", flag.ContinueOnError)
	code := fs.String("code", "", "")
	id, err := parse(fs, args, true)
	if err != nil {
		return err
	}

	v, err := a.auth.Viewer(ctx)
	if err != nil {
		return err
	}
	view, err := a.findItem(ctx, v, id)
	if err != nil {
		return err
	}
	if !view.Actions.ShowDeleteAction {
		return domain.ErrForbidden
	}

	items, err := a.items.Delete(ctx, *v, view.Item, *code)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted item %s.\n", id)
	renderItems(a.out, viewsFor(*v, items))
	return nil
}

func (a *app) itemsPhoto(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("items photo", flag.ContinueOnError)
	slotName := fs.String("slot", string(policy.SlotFront), "")
	thumb := fs.Bool("thumb", false, "")
	out := fs.String("o", "", "")
	id, err := parse(fs, args, true)
	if err != nil {
		return err
	}

	slot := policy.PhotoSlot(*slotName)
	if slot != policy.SlotFront && slot != policy.SlotBack {
		return usageError(fmt.Sprintf("items photo: -slot must be %s or %s", policy.SlotFront, policy.SlotBack))
	}

	v, err := a.auth.Viewer(ctx)
	if err != nil {
		return err
	}
	view, err := a.findItem(ctx, v, id)
	if err != nil {
		return err
	}

	res, err := a.items.FetchPhoto(ctx, *v, view.Item, slot, *thumb)
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = fmt.Sprintf("%s-%s%s", id, slot, extension(res.ContentType))
	}
	return a.save(path, res)
}

func (a *app) itemsPDF(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("items pdf", flag.ContinueOnError)
	out := fs.String("o", "", "")
	id, err := parse(fs, args, true)
	if err != nil {
		return err
	}

	items, err := a.items.List(ctx, "")
	if err != nil {
		return err
	}
	item, err := domain.FindItem(items, id)
	if err != nil {
		return fmt.Errorf("item %s: %w", id, err)
	}

	res, err := a.items.FetchPDF(ctx, *item)
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = id + extension(res.ContentType)
	}
	return a.save(path, res)
}

func (a *app) save(path string, res *ports.Resource) error {
	if err := os.WriteFile(path, res.Data, 0o644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	fmt.Fprintf(a.out, "Saved %s (%d bytes, %s).\n", path, len(res.Data), res.ContentType)
	return nil
}

func extension(contentType string) string {
	ct, _, _ := strings.Cut(contentType, ";")
	switch strings.TrimSpace(ct) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	}
	return ""
}

// --- users -----------------------------------------------------------------

func (a *app) usersList(ctx context.Context, _ []string) error {
	v, err := a.auth.Viewer(ctx)
	if err != nil {
		return err
	}
	users, err := a.users.List(ctx)
	if err != nil {
		return err
	}
	renderUsers(a.out, users, policy.UserActions(v.Role()))
	return nil
}

func (a *app) usersCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("users create", flag.ContinueOnError)
	email := fs.String("email", "", "")
	password := fs.String("password", "", "")
	first := fs.String("first", "", "")
	last := fs.String("last", "", "")
	company := fs.String("company", "", "")
	role := fs.String("role", "", "")
	codes := fs.String("codes", "", "")
	if _, err := parse(fs, args, false); err != nil {
		return err
	}

	v, err := a.auth.Viewer(ctx)
	if err != nil {
		return err
	}
	users, err := a.users.Create(ctx, *v, ports.CreateUserInput{
		Email:     *email,
		Password:  *password,
		FirstName: *first,
		LastName:  *last,
		Company:   *company,
		Role:      domain.Role(strings.TrimSpace(*role)),
		Codes:     splitCodes(*codes),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created user %s.\n", strings.TrimSpace(*email))
	renderUsers(a.out, users, policy.UserActions(v.Role()))
	return nil
}

func (a *app) usersUpdate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("users update", flag.ContinueOnError)
	first := fs.String("first", "", "")
	last := fs.String("last", "", "")
	company := fs.String("company", "", "")
	role := fs.String("role", "", "")
	codes := fs.String("codes", "", "")
	id, err := parse(fs, args, true)
	if err != nil {
		return err
	}
	set := setFlags(fs)

	in := ports.UpdateUserInput{
		FirstName: optional(set, "first", *first),
		LastName:  optional(set, "last", *last),
		Company:   optional(set, "company", *company),
	}
	if set["role"] {
		r := domain.Role(strings.TrimSpace(*role))
		in.Role = &r
	}
	if set["codes"] {
		c := splitCodes(*codes)
		in.Codes = &c
	}

	v, err := a.auth.Viewer(ctx)
	if err != nil {
		return err
	}
	users, err := a.users.Update(ctx, *v, id, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated user %s.\n", id)
	renderUsers(a.out, users, policy.UserActions(v.Role()))
	return nil
}

func (a *app) usersDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("users delete", flag.ContinueOnError)
	id, err := parse(fs, args, true)
	if err != nil {
		return err
	}

	v, err := a.auth.Viewer(ctx)
	if err != nil {
		return err
	}
	users, err := a.users.Delete(ctx, *v, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted user %s.\n", id)
	renderUsers(a.out, users, policy.UserActions(v.Role()))
	return nil
}
