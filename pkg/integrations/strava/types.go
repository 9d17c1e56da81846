package strava

// Activity type strings as returned by the Strava API.
const (
	TypeRide        = "Ride"
	TypeVirtualRide = "VirtualRide"
	TypeRun         = "Run"
)

// ActivitySummary is the subset of the activity listing payload we consume.
type ActivitySummary struct {
	// Unique identifier for the activity, assigned by Strava
	ID int64 `json:"id"`
	// The name of the activity
	Name string `json:"name"`
	// Type of activity (e.g. "Ride", "VirtualRide", "Run")
	Type string `json:"type"`
	// ISO 8601 formatted date string
	StartDate string `json:"start_date"`
	// Distance in meters
	Distance float64 `json:"distance"`
	// Whether the activity is private
	Private bool `json:"private"`
}

// UpdateActivityParams are the updatable activity fields. All fields are
// optional; only non-nil fields are transmitted, so unset fields leave the
// remote value untouched.
type UpdateActivityParams struct {
	// Whether to hide this activity from the home feed
	HideFromHome *bool `json:"hide_from_home,omitempty"`
	// The name of the activity
	Name *string `json:"name,omitempty"`
	// Description of the activity
	Description *string `json:"description,omitempty"`
	// Whether this activity is a commute
	Commute *bool `json:"commute,omitempty"`
	// Whether this activity was on a trainer
	Trainer *bool `json:"trainer,omitempty"`
	// Sport type of the activity
	SportType *string `json:"sport_type,omitempty"`
	// Identifier for the gear used
	GearID *string `json:"gear_id,omitempty"`
}

// Bool returns a pointer to b, for building sparse update params.
func Bool(b bool) *bool { return &b }

// String returns a pointer to s, for building sparse update params.
func String(s string) *string { return &s }
