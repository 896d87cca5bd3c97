package workouts

import (
	"context"
	"sort"
	"time"

	"github.com/fitrackapp/fitrack/internal/telemetry/tracing"
)

// ExerciseSummary aggregates all stat entries of one exercise
// that fall on the same day.
type ExerciseSummary struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	TotalSets   int            `json:"totalSets"`
	TotalVolume float64        `json:"totalVolume"`
	Stats       []ExerciseStat `json:"stats"`
}

type MuscleGroupSummary struct {
	MuscleGroup string            `json:"muscleGroup"`
	Exercises   []ExerciseSummary `json:"exercises"`
}

type DaySummary struct {
	Date         string               `json:"date"`
	MuscleGroups []MuscleGroupSummary `json:"muscleGroups"`
}

// Analyzer builds the date / muscle group / exercise summary
// report out of a user's workout sessions.
type Analyzer struct {
	repo workoutsRepo
}

func NewAnalyzer(repo workoutsRepo) *Analyzer {
	return &Analyzer{repo: repo}
}

// statVolume is the sum of reps x weight over the sets.
// Bodyweight sets (weight 0) contribute no volume.
func statVolume(stat ExerciseStat) float64 {
	var volume float64
	for _, set := range stat.Sets {
		volume += float64(set.Reps) * set.Weight
	}
	return volume
}

// Summary groups the user's stat entries by day, then muscle
// group, then exercise. Days are sorted newest first, groups and
// exercises alphabetically.
func (a *Analyzer) Summary(ctx context.Context, userID string, from, to *time.Time) (_ []DaySummary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workoutsAnalyzer.summary")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	// list without a date bound: the session document's date is its
	// creation day, while later updates append stats on other days.
	// The window is applied per stat entry below.
	sessions, err := a.repo.ListForUser(ctx, userID, nil, nil)
	if err != nil {
		return nil, err
	}

	type exerciseKey struct {
		day         string
		muscleGroup string
		exerciseID  string
	}

	days := map[string]time.Time{}
	groupsPerDay := map[string]map[string]bool{}
	exercises := map[exerciseKey]*ExerciseSummary{}

	for i := range sessions {
		session := &sessions[i]
		mg := NormalizeMuscleGroup(session.MuscleGroup)
		for _, stat := range session.Stats {
			dayKey := DayKey(stat.Date)
			day := dayKey.Format("2006-01-02")

			if from != nil && dayKey.Before(DayKey(*from)) {
				continue
			}
			if to != nil && dayKey.After(DayKey(*to)) {
				continue
			}

			days[day] = dayKey
			if groupsPerDay[day] == nil {
				groupsPerDay[day] = map[string]bool{}
			}
			groupsPerDay[day][mg] = true

			key := exerciseKey{day: day, muscleGroup: mg, exerciseID: session.ID.Hex()}
			summary := exercises[key]
			if summary == nil {
				summary = &ExerciseSummary{
					ID:   session.ID.Hex(),
					Name: session.Name,
				}
				exercises[key] = summary
			}
			summary.TotalSets += len(stat.Sets)
			summary.TotalVolume += statVolume(stat)
			summary.Stats = append(summary.Stats, stat)
		}
	}

	dayKeys := make([]string, 0, len(days))
	for day := range days {
		dayKeys = append(dayKeys, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dayKeys)))

	report := make([]DaySummary, 0, len(dayKeys))
	for _, day := range dayKeys {
		groupNames := make([]string, 0, len(groupsPerDay[day]))
		for mg := range groupsPerDay[day] {
			groupNames = append(groupNames, mg)
		}
		sort.Strings(groupNames)

		daySummary := DaySummary{Date: day}
		for _, mg := range groupNames {
			var groupExercises []ExerciseSummary
			for key, summary := range exercises {
				if key.day == day && key.muscleGroup == mg {
					groupExercises = append(groupExercises, *summary)
				}
			}
			sort.Slice(groupExercises, func(i, j int) bool {
				if groupExercises[i].Name != groupExercises[j].Name {
					return groupExercises[i].Name < groupExercises[j].Name
				}
				return groupExercises[i].ID < groupExercises[j].ID
			})
			daySummary.MuscleGroups = append(daySummary.MuscleGroups, MuscleGroupSummary{
				MuscleGroup: mg,
				Exercises:   groupExercises,
			})
		}
		report = append(report, daySummary)
	}

	return report, nil
}
