package donor

import (
	"time"

	"github.com/google/uuid"

	"github.com/lifelink/blood-donor-matching-backend/internal/domain/bloodtype"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/geo"
)

// DonationCooldown is the minimum interval a donor must wait between
// donations before becoming eligible again.
const DonationCooldown = 90 * 24 * time.Hour

// Candidate is a read-only projection of a donor record, consumed per
// matching cycle. The core never persists it.
type Candidate struct {
	DonorID                 uuid.UUID           `json:"donor_id"`
	BloodType               bloodtype.Type      `json:"blood_type"`
	Coordinates             geo.Coordinates     `json:"coordinates"`
	LastDonationAt          *time.Time          `json:"last_donation_at,omitempty"`
	IsAvailable             bool                `json:"is_available"`
	MedicallyCleared        bool                `json:"medically_cleared"`
	NotificationWindow      *NotificationWindow `json:"notification_window,omitempty"`
	ChannelPreferences      []string            `json:"channel_preferences,omitempty"`
	HistoricalDonationCount int                 `json:"historical_donation_count"`
	HistoricalResponseRate  float64             `json:"historical_response_rate"`
}

// NotificationWindow is a donor's preferred notification hours. A window
// where Start > End wraps past midnight (e.g. 22..6).
type NotificationWindow struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

// Contains reports whether the given hour of day falls inside the window.
// The start hour is inclusive, the end hour exclusive.
func (w NotificationWindow) Contains(hour int) bool {
	if w.StartHour <= w.EndHour {
		return hour >= w.StartHour && hour < w.EndHour
	}
	return hour >= w.StartHour || hour < w.EndHour
}

// OnCooldown reports whether the donor donated within the cooldown window.
// A donor whose last donation is exactly the cooldown ago is eligible.
func (c *Candidate) OnCooldown(now time.Time) bool {
	if c.LastDonationAt == nil {
		return false
	}
	return now.Sub(*c.LastDonationAt) < DonationCooldown
}

// Notifiable reports whether the donor accepts notifications at the given
// time. Donors without a declared window are always notifiable.
func (c *Candidate) Notifiable(now time.Time) bool {
	if c.NotificationWindow == nil {
		return true
	}
	return c.NotificationWindow.Contains(now.Hour())
}
