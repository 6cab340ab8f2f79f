package services

import (
	"sort"

	"homevisit-dispatch-service/internal/domain"
)

const (
	maxRecommendations = 5

	// A prior treatment relation outweighs any unrelated candidate.
	historyScore = 5
)

// RecommendAlternatives ranks doctors other than the originally assigned one
// for a patient, using historical-treatment affinity. Pure ranking: it never
// checks availability — callers run the feasibility checker before acting on
// an entry.
//
// Ties keep the candidate list's incoming order (stable sort), so any
// candidate with a treatment history ranks strictly above those without one.
func RecommendAlternatives(
	originalDoctorID string,
	candidates []domain.Doctor,
	treatedBy map[string]struct{},
) []domain.RecommendationEntry {
	entries := make([]domain.RecommendationEntry, 0, len(candidates))
	for _, doc := range candidates {
		if doc.ID == originalDoctorID {
			continue
		}

		score := 0
		if _, ok := treatedBy[doc.ID]; ok {
			score = historyScore
		}
		entries = append(entries, domain.RecommendationEntry{Doctor: doc, Score: score})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	if len(entries) > maxRecommendations {
		entries = entries[:maxRecommendations]
	}
	return entries
}
