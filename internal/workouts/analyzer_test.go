package workouts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzer_Summary(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	service, repo := newTestService(now)
	analyzer := NewAnalyzer(repo)
	ctx := context.Background()

	// day 1: chest
	bench, err := service.AddExerciseStats(ctx, "user1", AddStatsRequest{
		Name:        "Bench Press",
		MuscleGroup: "chest",
		Sets: []SetInput{
			{Reps: intPtr(10), Weight: floatPtr(80)},
			{Reps: intPtr(8), Weight: floatPtr(85)},
		},
	})
	require.NoError(t, err)

	_, err = service.AddExerciseStats(ctx, "user1", AddStatsRequest{
		Name:        "Incline Dumbbell Press",
		MuscleGroup: "chest",
		Sets:        []SetInput{{Reps: intPtr(12), Weight: floatPtr(30)}},
	})
	require.NoError(t, err)

	// day 2: bench again plus legs
	day2 := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	service.NowFunc = func() time.Time { return day2 }

	_, err = service.UpdateExerciseStats(ctx, "user1", bench.ID.Hex(), UpdateStatsRequest{
		Sets: []SetInput{{Reps: intPtr(10), Weight: floatPtr(82.5)}},
	})
	require.NoError(t, err)

	_, err = service.AddExerciseStats(ctx, "user1", AddStatsRequest{
		Name:        "Squat",
		MuscleGroup: "legs",
		Sets:        []SetInput{{Reps: intPtr(5), Weight: floatPtr(120)}},
	})
	require.NoError(t, err)

	// another user's data must not leak into the report
	_, err = service.AddExerciseStats(ctx, "user2", AddStatsRequest{
		Name:        "Deadlift",
		MuscleGroup: "back",
		Sets:        []SetInput{{Reps: intPtr(5), Weight: floatPtr(140)}},
	})
	require.NoError(t, err)

	report, err := analyzer.Summary(ctx, "user1", nil, nil)
	require.NoError(t, err)
	require.Len(t, report, 2)

	// newest day first
	assert.Equal(t, "2025-03-11", report[0].Date)
	assert.Equal(t, "2025-03-10", report[1].Date)

	// day 2: chest and legs, sorted alphabetically
	require.Len(t, report[0].MuscleGroups, 2)
	assert.Equal(t, MuscleGroupChest, report[0].MuscleGroups[0].MuscleGroup)
	assert.Equal(t, MuscleGroupLegs, report[0].MuscleGroups[1].MuscleGroup)

	require.Len(t, report[0].MuscleGroups[0].Exercises, 1)
	benchDay2 := report[0].MuscleGroups[0].Exercises[0]
	assert.Equal(t, "Bench Press", benchDay2.Name)
	assert.Equal(t, 1, benchDay2.TotalSets)
	assert.Equal(t, 825.0, benchDay2.TotalVolume)

	squatDay2 := report[0].MuscleGroups[1].Exercises[0]
	assert.Equal(t, "Squat", squatDay2.Name)
	assert.Equal(t, 600.0, squatDay2.TotalVolume)

	// day 1: chest only, two exercises sorted by name
	require.Len(t, report[1].MuscleGroups, 1)
	chestDay1 := report[1].MuscleGroups[0]
	assert.Equal(t, MuscleGroupChest, chestDay1.MuscleGroup)
	require.Len(t, chestDay1.Exercises, 2)
	assert.Equal(t, "Bench Press", chestDay1.Exercises[0].Name)
	assert.Equal(t, "Incline Dumbbell Press", chestDay1.Exercises[1].Name)

	benchDay1 := chestDay1.Exercises[0]
	assert.Equal(t, 2, benchDay1.TotalSets)
	// 10x80 + 8x85
	assert.Equal(t, 1480.0, benchDay1.TotalVolume)
}

func TestAnalyzer_Summary_bodyweightSets(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	service, repo := newTestService(now)
	analyzer := NewAnalyzer(repo)
	ctx := context.Background()

	_, err := service.AddExerciseStats(ctx, "user1", AddStatsRequest{
		Name:        "Pull Up",
		MuscleGroup: "back",
		Sets: []SetInput{
			{Reps: intPtr(10)},
			{Reps: intPtr(8)},
		},
	})
	require.NoError(t, err)

	report, err := analyzer.Summary(ctx, "user1", nil, nil)
	require.NoError(t, err)
	require.Len(t, report, 1)

	pullUp := report[0].MuscleGroups[0].Exercises[0]
	assert.Equal(t, 2, pullUp.TotalSets)
	assert.Equal(t, 0.0, pullUp.TotalVolume)
}

func TestAnalyzer_Summary_dateRange(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	service, repo := newTestService(now)
	analyzer := NewAnalyzer(repo)
	ctx := context.Background()

	for day := 1; day <= 4; day++ {
		service.NowFunc = func() time.Time {
			return time.Date(2025, 3, day, 8, 0, 0, 0, time.UTC)
		}
		_, err := service.AddExerciseStats(ctx, "user1", AddStatsRequest{
			Name:        "Squat",
			MuscleGroup: "legs",
			Sets:        []SetInput{{Reps: intPtr(5), Weight: floatPtr(100)}},
		})
		require.NoError(t, err)
	}

	from := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	report, err := analyzer.Summary(ctx, "user1", timePtr(from), timePtr(to))
	require.NoError(t, err)

	require.Len(t, report, 2)
	assert.Equal(t, "2025-03-03", report[0].Date)
	assert.Equal(t, "2025-03-02", report[1].Date)
}

func TestAnalyzer_Summary_statsAfterSessionDate(t *testing.T) {
	created := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	service, repo := newTestService(created)
	analyzer := NewAnalyzer(repo)
	ctx := context.Background()

	bench, err := service.AddExerciseStats(ctx, "user1", AddStatsRequest{
		Name:        "Bench Press",
		MuscleGroup: "chest",
		Sets:        []SetInput{{Reps: intPtr(10), Weight: floatPtr(80)}},
	})
	require.NoError(t, err)

	// stats appended days after the session was created
	service.NowFunc = func() time.Time {
		return time.Date(2025, 3, 5, 18, 0, 0, 0, time.UTC)
	}
	_, err = service.UpdateExerciseStats(ctx, "user1", bench.ID.Hex(), UpdateStatsRequest{
		Sets: []SetInput{{Reps: intPtr(8), Weight: floatPtr(85)}},
	})
	require.NoError(t, err)

	// window excludes the creation day but covers the update day
	from := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC)
	report, err := analyzer.Summary(ctx, "user1", timePtr(from), timePtr(to))
	require.NoError(t, err)

	require.Len(t, report, 1)
	assert.Equal(t, "2025-03-05", report[0].Date)
	benchDay5 := report[0].MuscleGroups[0].Exercises[0]
	assert.Equal(t, 1, benchDay5.TotalSets)
	assert.Equal(t, 680.0, benchDay5.TotalVolume)
}

func TestAnalyzer_Summary_empty(t *testing.T) {
	repo := newRepoMock()
	analyzer := NewAnalyzer(repo)

	report, err := analyzer.Summary(context.Background(), "user1", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, report)
}
