package policy

import (
	"fmt"
	"math"
	"time"

	"github.com/docflow/approvals/internal/core/domain"
)

// NotAvailable is rendered in place of any missing value.
const NotAvailable = "not available"

// FormatCoordinate renders a latitude or longitude with six decimals.
func FormatCoordinate(v *float64) string {
	if v == nil || math.IsNaN(*v) {
		return NotAvailable
	}
	return fmt.Sprintf("%.6f", *v)
}

// FormatAccuracy renders the accuracy rounded to the nearest meter.
func FormatAccuracy(v *float64) string {
	if v == nil || math.IsNaN(*v) {
		return NotAvailable
	}
	return fmt.Sprintf("%d m", int64(math.Round(*v)))
}

// FormatTimestamp renders t in the local zone.
func FormatTimestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return NotAvailable
	}
	return t.Local().Format("02.01.2006. 15:04")
}

// LocationView is the rendered content of the location panel.
type LocationView struct {
	Latitude  string
	Longitude string
	Accuracy  string
	Timestamp string
}

// FormatLocation renders loc, falling back to NotAvailable for every missing value.
func FormatLocation(loc *domain.GeoLocation) LocationView {
	if loc == nil {
		return LocationView{NotAvailable, NotAvailable, NotAvailable, NotAvailable}
	}
	var lat, lng *float64
	if loc.Coordinates != nil {
		lat, lng = loc.Coordinates.Latitude, loc.Coordinates.Longitude
	}
	return LocationView{
		Latitude:  FormatCoordinate(lat),
		Longitude: FormatCoordinate(lng),
		Accuracy:  FormatAccuracy(loc.Accuracy),
		Timestamp: FormatTimestamp(loc.Timestamp),
	}
}
