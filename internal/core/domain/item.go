package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ApprovalStatus represents the approval state of an item.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// Labels the backend uses on the wire.
const (
	labelPending  = "na čekanju"
	labelApproved = "odobreno"
	labelRejected = "odbijen"
)

// validTransitions defines the transitions this client can request.
// Approved and rejected are terminal.
var validTransitions = map[ApprovalStatus][]ApprovalStatus{
	StatusPending: {StatusApproved, StatusRejected},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s ApprovalStatus) CanTransitionTo(next ApprovalStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further approval action exists for s.
func (s ApprovalStatus) Terminal() bool {
	return len(validTransitions[s]) == 0
}

// Label returns the localized label the backend stores for s.
func (s ApprovalStatus) Label() string {
	switch s {
	case StatusPending:
		return labelPending
	case StatusApproved:
		return labelApproved
	case StatusRejected:
		return labelRejected
	default:
		return string(s)
	}
}

// ParseApprovalStatus accepts either the canonical name or the backend label.
func ParseApprovalStatus(s string) (ApprovalStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(StatusPending), labelPending:
		return StatusPending, nil
	case string(StatusApproved), labelApproved:
		return StatusApproved, nil
	case string(StatusRejected), labelRejected:
		return StatusRejected, nil
	}
	return "", fmt.Errorf("unknown approval status %q", s)
}

// Known reports whether s is one of the statuses this client understands.
// Unknown statuses offer no transitions.
func (s ApprovalStatus) Known() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (s ApprovalStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Label())
}

func (s *ApprovalStatus) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseApprovalStatus(raw)
	if err != nil {
		// Unknown labels are kept verbatim.
		*s = ApprovalStatus(strings.TrimSpace(raw))
		return nil
	}
	*s = parsed
	return nil
}

// Coordinates is a geographic point. Either component may be missing.
type Coordinates struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Complete reports whether both latitude and longitude are populated.
func (c *Coordinates) Complete() bool {
	return c != nil && c.Latitude != nil && c.Longitude != nil
}

// GeoLocation is the position captured when an item was approved.
type GeoLocation struct {
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Accuracy    *float64     `json:"accuracy,omitempty"`
	Timestamp   *time.Time   `json:"timestamp,omitempty"`
}

// PhotoRef points at a photo stored by the backend. URL is relative to the API host.
type PhotoRef struct {
	URL        *string    `json:"url"`
	UploadDate *time.Time `json:"uploadDate,omitempty"`
	MimeType   string     `json:"mimeType,omitempty"`
}

// HasURL reports whether p references a retrievable photo.
func (p *PhotoRef) HasURL() bool {
	return p != nil && p.URL != nil && strings.TrimSpace(*p.URL) != ""
}

// UserRef is the short form of a user embedded in other records.
type UserRef struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
}

// DisplayName returns "First Last", falling back to the email.
func (u UserRef) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Item is a document record with an approval workflow. Approval fields are
// each independently optional, even when the item is approved.
type Item struct {
	ID                 string         `json:"_id"`
	Title              string         `json:"title"`
	Code               string         `json:"code"`
	Registracija       string         `json:"registracija,omitempty"`
	Neto               float64        `json:"neto"`
	Tezina             float64        `json:"tezina"`
	PdfURL             string         `json:"pdfUrl"`
	CreationTime       *time.Time     `json:"creationTime,omitempty"`
	ApprovalStatus     ApprovalStatus `json:"approvalStatus"`
	InTransit          bool           `json:"inTransit"`
	ApprovedBy         *UserRef       `json:"approvedBy,omitempty"`
	ApprovalDate       *time.Time     `json:"approvalDate,omitempty"`
	ApprovalLocation   *GeoLocation   `json:"approvalLocation,omitempty"`
	ApprovalPhotoFront *PhotoRef      `json:"approvalPhotoFront,omitempty"`
	ApprovalPhotoBack  *PhotoRef      `json:"approvalPhotoBack,omitempty"`
}

// NewItem is the payload submitted when creating an item.
// Tezina always mirrors Neto.
type NewItem struct {
	Title        string    `json:"title"`
	Code         string    `json:"code"`
	Registracija string    `json:"registracija"`
	Neto         float64   `json:"neto"`
	Tezina       float64   `json:"tezina"`
	PdfURL       string    `json:"pdfUrl"`
	CreationTime time.Time `json:"creationTime"`
}

// FindItem returns the item with the given id from items.
func FindItem(items []Item, id string) (*Item, error) {
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, ErrItemNotFound
}
