package service

import (
	"fmt"
	"sort"
	"time"

	"alcyxob/fitness-sync/internal/domain"
)

// AnalyticsService derives stateless read-models from session history.
// Every method is a pure computation over its inputs; nothing here
// touches storage.
type AnalyticsService struct{}

// NewAnalyticsService creates the analytics read-model service.
func NewAnalyticsService() *AnalyticsService {
	return &AnalyticsService{}
}

// CurrentStreak counts consecutive calendar days with at least one
// session, walking back from the reference date. A gap of more than one
// day breaks the streak; a reference day without a session still counts
// a streak ending yesterday.
func (s *AnalyticsService) CurrentStreak(sessions []domain.Session, reference time.Time) int {
	days := make(map[string]bool, len(sessions))
	for _, session := range sessions {
		days[dayKey(session.Date)] = true
	}

	day := reference.UTC().Truncate(24 * time.Hour)
	if !days[dayKey(day)] {
		day = day.AddDate(0, 0, -1)
		if !days[dayKey(day)] {
			return 0
		}
	}

	streak := 0
	for days[dayKey(day)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// WeeklyVolume sums weight×reps across completed sets per ISO week.
// Keys look like "2026-W11".
func (s *AnalyticsService) WeeklyVolume(sessions []domain.Session) map[string]float64 {
	volume := make(map[string]float64)
	for _, session := range sessions {
		year, week := session.Date.UTC().ISOWeek()
		key := fmt.Sprintf("%04d-W%02d", year, week)
		for _, ex := range session.Exercises() {
			for _, g := range ex.SetGroups {
				for _, set := range g.Sets {
					if !set.Completed || set.Weight == nil || set.Reps == nil {
						continue
					}
					volume[key] += *set.Weight * float64(*set.Reps)
				}
			}
		}
	}
	return volume
}

// ProgressionBreakdown counts recommendation labels applied within the
// trailing day window.
func (s *AnalyticsService) ProgressionBreakdown(sessions []domain.Session, windowDays int, reference time.Time) map[domain.ProgressionOutcome]int {
	cutoff := reference.UTC().AddDate(0, 0, -windowDays)
	breakdown := make(map[domain.ProgressionOutcome]int)
	for _, session := range sessions {
		if session.Date.Before(cutoff) || session.Date.After(reference) {
			continue
		}
		for _, ex := range session.Exercises() {
			if ex.ProgressionRecommendation != nil {
				breakdown[*ex.ProgressionRecommendation]++
			}
		}
	}
	return breakdown
}

// brzyckiRepCeiling is the highest rep count considered reliable for
// one-rep-max estimation.
const brzyckiRepCeiling = 12

// EstimatedOneRepMax applies the Brzycki formula. Returns 0 for rep
// counts outside the reliable range.
func EstimatedOneRepMax(weight float64, reps int) float64 {
	if reps <= 0 || reps > brzyckiRepCeiling {
		return 0
	}
	return weight * 36 / (37 - float64(reps))
}

// PersonalRecord marks a session set whose estimated one-rep max
// exceeded every earlier estimate for the same exercise.
type PersonalRecord struct {
	ExerciseName string    `json:"exerciseName"`
	SessionID    string    `json:"sessionId"`
	Date         time.Time `json:"date"`
	Weight       float64   `json:"weight"`
	Reps         int       `json:"reps"`
	EstimatedMax float64   `json:"estimatedMax"`
}

// PersonalRecords walks sessions in chronological order and collects
// every new estimated-1RM high-water mark per exercise. Sets with more
// than 12 reps never contribute, even at numerically higher weights.
func (s *AnalyticsService) PersonalRecords(sessions []domain.Session) []PersonalRecord {
	ordered := append([]domain.Session(nil), sessions...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	best := make(map[string]float64)
	var records []PersonalRecord
	for _, session := range ordered {
		for _, ex := range session.Exercises() {
			for _, g := range ex.SetGroups {
				for _, set := range g.Sets {
					if !set.Completed || set.Weight == nil || set.Reps == nil {
						continue
					}
					e1rm := EstimatedOneRepMax(*set.Weight, *set.Reps)
					if e1rm <= best[ex.Name] {
						continue
					}
					best[ex.Name] = e1rm
					records = append(records, PersonalRecord{
						ExerciseName: ex.Name,
						SessionID:    session.ID,
						Date:         session.Date,
						Weight:       *set.Weight,
						Reps:         *set.Reps,
						EstimatedMax: e1rm,
					})
				}
			}
		}
	}
	return records
}

// EngineHealth summarises how the progression engine is being received.
type EngineHealth struct {
	Decisions         int     `json:"decisions"`
	AcceptanceRate    float64 `json:"acceptanceRate"`
	RegressRate       float64 `json:"regressRate"`
	AverageConfidence float64 `json:"averageConfidence"`
}

// EngineHealthSummary computes acceptance rate (followed vs overridden)
// and regress rate over decision records.
func (s *AnalyticsService) EngineHealthSummary(decisions []domain.ProgressionDecision) EngineHealth {
	health := EngineHealth{Decisions: len(decisions)}
	if len(decisions) == 0 {
		return health
	}
	followed, regressed := 0, 0
	confidence := 0.0
	for _, d := range decisions {
		if d.Followed {
			followed++
		}
		if d.DecisionCode == domain.OutcomeRegress {
			regressed++
		}
		confidence += d.Confidence
	}
	total := float64(len(decisions))
	health.AcceptanceRate = float64(followed) / total
	health.RegressRate = float64(regressed) / total
	health.AverageConfidence = confidence / total
	return health
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
