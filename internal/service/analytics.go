package service

import (
	"time"

	"balans/wellbeing-app/internal/domain"
)

// AdaptationAnalytics summarizes a plan's adaptation history for the UI and
// for detecting plan instability.
type AdaptationAnalytics struct {
	Total              int                                `json:"total"`
	ByCategory         map[domain.AdaptationCategory]int  `json:"byCategory"`
	MostFrequentIntent domain.AdaptationIntent            `json:"mostFrequentIntent,omitempty"`
	UndoRate           float64                            `json:"undoRate"`
	VelocityPerWeek    float64                            `json:"velocityPerWeek"`
}

const velocityWindowDays = 30

// ComputeAdaptationAnalytics derives all metrics from one history listing.
// Rolled-back entries count toward the undo rate but are excluded from
// everything else.
func ComputeAdaptationAnalytics(history []domain.AdaptationHistory, now time.Time) AdaptationAnalytics {
	analytics := AdaptationAnalytics{
		ByCategory: map[domain.AdaptationCategory]int{},
	}

	intentCounts := map[domain.AdaptationIntent]int{}
	rolledBack := 0
	recent := 0
	since := now.AddDate(0, 0, -velocityWindowDays)

	for _, entry := range history {
		if entry.IsRolledBack {
			rolledBack++
			continue
		}
		analytics.Total++
		analytics.ByCategory[entry.Category]++
		intentCounts[entry.Intent]++
		if !entry.AppliedAt.Before(since) {
			recent++
		}
	}

	if all := analytics.Total + rolledBack; all > 0 {
		analytics.UndoRate = float64(rolledBack) / float64(all)
	}

	// Ties break on declaration order so the result is stable.
	best := 0
	for _, intent := range domain.AllAdaptationIntents() {
		if count := intentCounts[intent]; count > best {
			best = count
			analytics.MostFrequentIntent = intent
		}
	}

	weeks := float64(velocityWindowDays) / 7.0
	analytics.VelocityPerWeek = float64(recent) / weeks

	return analytics
}
