// Package policy decides which actions and sub-views are available for an
// item or user account, given the viewer's role and session state. Every
// function here is pure: no I/O, deterministic in its inputs.
package policy

import "github.com/docflow/approvals/internal/core/domain"

// PhotoSlot identifies one of the two approval photos.
type PhotoSlot string

const (
	SlotFront PhotoSlot = "front"
	SlotBack  PhotoSlot = "back"
)

// LocationPanel is the display state of the approval location panel.
type LocationPanel int

const (
	// LocationHidden: no location to show.
	LocationHidden LocationPanel = iota
	// LocationAvailable: both coordinates are populated.
	LocationAvailable
	// LocationUnavailable: a location was recorded but its coordinates are
	// incomplete; the panel is shown in a degraded state.
	LocationUnavailable
)

func (p LocationPanel) String() string {
	switch p {
	case LocationAvailable:
		return "available"
	case LocationUnavailable:
		return "unavailable"
	default:
		return "hidden"
	}
}

// ItemActions describes what a viewer may see and do for one item.
type ItemActions struct {
	ShowApproveAction   bool
	ShowDeleteAction    bool
	ShowApprovalDetails bool
	ShowInTransitBadge  bool
	VisiblePhotoSlots   []PhotoSlot // front before back
	Location            LocationPanel
}

// ShowLocationPanel reports whether the location panel is rendered at all,
// including the degraded state.
func (a ItemActions) ShowLocationPanel() bool {
	return a.Location != LocationHidden
}

// PhotoVisible reports whether slot is in VisiblePhotoSlots.
func (a ItemActions) PhotoVisible(slot PhotoSlot) bool {
	for _, s := range a.VisiblePhotoSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// Evaluate computes the actions for item as seen by a viewer with role.
// Approve is offered to every role while the item is pending.
func Evaluate(item domain.Item, role domain.Role, hasValidToken bool) ItemActions {
	approved := item.ApprovalStatus == domain.StatusApproved

	a := ItemActions{
		ShowApproveAction:   item.ApprovalStatus.CanTransitionTo(domain.StatusApproved),
		ShowDeleteAction:    role == domain.RoleAdmin,
		ShowApprovalDetails: approved && item.ApprovedBy != nil,
		ShowInTransitBadge:  item.InTransit,
		Location:            locationPanel(item, approved),
	}

	// Photo retrieval needs the bearer header, so without a token the slot
	// is omitted rather than attempted.
	if hasValidToken {
		if item.ApprovalPhotoFront.HasURL() {
			a.VisiblePhotoSlots = append(a.VisiblePhotoSlots, SlotFront)
		}
		if item.ApprovalPhotoBack.HasURL() {
			a.VisiblePhotoSlots = append(a.VisiblePhotoSlots, SlotBack)
		}
	}

	return a
}

func locationPanel(item domain.Item, approved bool) LocationPanel {
	if !approved || item.ApprovalLocation == nil {
		return LocationHidden
	}
	if item.ApprovalLocation.Coordinates.Complete() {
		return LocationAvailable
	}
	return LocationUnavailable
}

// Photo returns the photo reference stored in slot.
func Photo(item domain.Item, slot PhotoSlot) *domain.PhotoRef {
	switch slot {
	case SlotFront:
		return item.ApprovalPhotoFront
	case SlotBack:
		return item.ApprovalPhotoBack
	}
	return nil
}

// UserManagement describes the account-management actions a viewer is offered.
type UserManagement struct {
	ShowCreate bool
	ShowEdit   bool
	ShowDelete bool
}

// UserActions computes the account-management actions for role. Only admins
// manage accounts; everyone may edit their own profile separately.
func UserActions(role domain.Role) UserManagement {
	admin := role == domain.RoleAdmin
	return UserManagement{ShowCreate: admin, ShowEdit: admin, ShowDelete: admin}
}
