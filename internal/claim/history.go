package claim

import (
	"github.com/sol1corejz/loyaltydesk/internal/models"
	"time"
)

type Stats struct {
	TotalClaims        int        `json:"total_claims"`
	TotalPointsClaimed int        `json:"total_points_claimed"`
	FirstClaimAt       *time.Time `json:"first_claim_at"`
	LastClaimAt        *time.Time `json:"last_claim_at"`
}

// Summarize works on history in any order.
func Summarize(history []models.ClaimHistory) Stats {
	var stats Stats
	for i := range history {
		entry := &history[i]
		stats.TotalClaims++
		stats.TotalPointsClaimed += entry.PointsClaimed

		if stats.FirstClaimAt == nil || entry.ClaimedAt.Before(*stats.FirstClaimAt) {
			stats.FirstClaimAt = &entry.ClaimedAt
		}
		if stats.LastClaimAt == nil || entry.ClaimedAt.After(*stats.LastClaimAt) {
			stats.LastClaimAt = &entry.ClaimedAt
		}
	}
	return stats
}
