package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/docflow/approvals/internal/core/domain"
	"github.com/docflow/approvals/internal/core/policy"
	"github.com/docflow/approvals/internal/core/ports"
)

func viewsFor(v ports.Viewer, items []domain.Item) []ports.ItemView {
	views := make([]ports.ItemView, 0, len(items))
	for _, it := range items {
		views = append(views, ports.ItemView{Item: it, Actions: policy.Evaluate(it, v.Role(), v.HasValidToken)})
	}
	return views
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func renderItems(w io.Writer, views []ports.ItemView) {
	if len(views) == 0 {
		fmt.Fprintln(w, "No items.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCODE\tNETO\tSTATUS\tACTIONS")
	for _, v := range views {
		status := v.Item.ApprovalStatus.Label()
		if v.Actions.ShowInTransitBadge {
			status += " (in transit)"
		}
		var actions []string
		if v.Actions.ShowApproveAction {
			actions = append(actions, "approve")
		}
		if v.Actions.ShowDeleteAction {
			actions = append(actions, "delete")
		}
		for _, slot := range v.Actions.VisiblePhotoSlots {
			actions = append(actions, "photo:"+string(slot))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			v.Item.ID, v.Item.Title, v.Item.Code, formatNumber(v.Item.Neto), orDash(status), orDash(strings.Join(actions, ",")))
	}
	_ = tw.Flush()
}

// renderItemDetails prints one item. Approval sections appear only when the
// policy shows them; missing values render as "not available".
func renderItemDetails(w io.Writer, v ports.ItemView) {
	it := v.Item
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(k, val string) { fmt.Fprintf(tw, "%s:\t%s\n", k, val) }

	row("ID", it.ID)
	row("Title", it.Title)
	row("Code", it.Code)
	row("Registracija", orDash(it.Registracija))
	row("Neto", formatNumber(it.Neto))
	row("Tezina", formatNumber(it.Tezina))
	row("PDF", orDash(it.PdfURL))
	row("Created", policy.FormatTimestamp(it.CreationTime))
	row("Status", orDash(it.ApprovalStatus.Label()))
	if v.Actions.ShowInTransitBadge {
		row("In transit", "yes")
	}

	if v.Actions.ShowApprovalDetails {
		row("Approved by", it.ApprovedBy.DisplayName())
		row("Approved at", policy.FormatTimestamp(it.ApprovalDate))
	}

	switch v.Actions.Location {
	case policy.LocationAvailable:
		loc := policy.FormatLocation(it.ApprovalLocation)
		row("Latitude", loc.Latitude)
		row("Longitude", loc.Longitude)
		row("Accuracy", loc.Accuracy)
		row("Located at", loc.Timestamp)
	case policy.LocationUnavailable:
		row("Location", policy.NotAvailable)
	}

	for _, slot := range v.Actions.VisiblePhotoSlots {
		row("Photo "+string(slot), *policy.Photo(it, slot).URL)
	}
	_ = tw.Flush()
}

func renderProfile(w io.Writer, u domain.User) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", u.DisplayName())
	fmt.Fprintf(tw, "Email:\t%s\n", u.Email)
	fmt.Fprintf(tw, "Role:\t%s\n", u.Role)
	fmt.Fprintf(tw, "Company:\t%s\n", orDash(u.Company))
	fmt.Fprintf(tw, "Codes:\t%s\n", orDash(strings.Join(u.Codes, ",")))
	_ = tw.Flush()
}

func renderUsers(w io.Writer, users []domain.User, actions policy.UserManagement) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tCOMPANY\tCODES\tVERIFIED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
			u.ID, u.Email, u.DisplayName(), u.Role, orDash(u.Company), orDash(strings.Join(u.Codes, ",")), u.IsVerified)
	}
	_ = tw.Flush()

	var offered []string
	if actions.ShowCreate {
		offered = append(offered, "create")
	}
	if actions.ShowEdit {
		offered = append(offered, "update")
	}
	if actions.ShowDelete {
		offered = append(offered, "delete")
	}
	if len(offered) > 0 {
		fmt.Fprintf(w, "\nActions: %s\n", strings.Join(offered, ", "))
	}
}
