package tasks

import (
	"math"
	"time"

	"github.com/hollis/daybook/internal/models"
)

// productivityScore rates the trailing seven calendar days of activity:
// up to 70 points for the completion rate, up to 20 for task volume, up
// to 10 for consistency. The sum is deliberately left unclamped.
func productivityScore(items []models.Task, now time.Time) int {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	cutoff := dayStart.AddDate(0, 0, -7)

	var total, completed int
	for _, t := range items {
		c := t.CreatedAt.In(now.Location())
		day := time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, now.Location())
		if day.Before(cutoff) {
			continue
		}
		total++
		if t.Completed {
			completed++
		}
	}

	if total == 0 {
		return 0
	}

	score := int(math.Round(float64(completed) / float64(total) * 70))
	score += min(total*2, 20)
	score += min(total, 10)
	return score
}
