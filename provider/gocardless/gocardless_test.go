package gocardless

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mstgnz/donate/provider"
)

func TestFirstCollectionDate(t *testing.T) {
	tests := []struct {
		name string
		now  string
		want string
	}{
		{"mid month", "2026-03-10", "2026-03-17"},
		{"lands on 28th", "2026-03-21", "2026-03-28"},
		{"lands on 29th snaps forward", "2026-03-22", "2026-04-01"},
		{"lands on 31st snaps forward", "2026-03-24", "2026-04-01"},
		{"end of month into next", "2026-03-28", "2026-04-04"},
		{"december snaps into january", "2026-12-23", "2027-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now, err := time.Parse("2006-01-02", tt.now)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, firstCollectionDate(now).Format("2006-01-02"))
		})
	}
}

func TestSessionToken_Deterministic(t *testing.T) {
	// The token ties the two flow legs together; the same donation must
	// produce the same token on both legs.
	donation := &provider.Donation{Form: "main", Time: "2026-03-10T12:00:00Z"}
	assert.Equal(t, "donate-main-2026-03-10T12:00:00Z", sessionToken(donation))
	assert.Equal(t, sessionToken(donation), sessionToken(donation))
}
