package donor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCandidate_OnCooldown(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		lastDonation *time.Time
		onCooldown   bool
	}{
		{"never donated", nil, false},
		{"89 days ago", ptr(now.AddDate(0, 0, -89)), true},
		{"exactly 90 days ago", ptr(now.Add(-DonationCooldown)), false},
		{"91 days ago", ptr(now.AddDate(0, 0, -91)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Candidate{LastDonationAt: tt.lastDonation}
			assert.Equal(t, tt.onCooldown, c.OnCooldown(now))
		})
	}
}

func TestNotificationWindow_Contains(t *testing.T) {
	day := NotificationWindow{StartHour: 8, EndHour: 20}
	assert.True(t, day.Contains(8))
	assert.True(t, day.Contains(19))
	assert.False(t, day.Contains(20))
	assert.False(t, day.Contains(3))

	overnight := NotificationWindow{StartHour: 22, EndHour: 6}
	assert.True(t, overnight.Contains(23))
	assert.True(t, overnight.Contains(2))
	assert.False(t, overnight.Contains(12))
}

func TestCandidate_Notifiable(t *testing.T) {
	morning := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	night := time.Date(2025, 6, 15, 23, 0, 0, 0, time.UTC)

	open := &Candidate{NotificationWindow: &NotificationWindow{StartHour: 8, EndHour: 20}}
	assert.True(t, open.Notifiable(morning))
	assert.False(t, open.Notifiable(night))

	anyTime := &Candidate{}
	assert.True(t, anyTime.Notifiable(night))
}

func ptr(t time.Time) *time.Time { return &t }
