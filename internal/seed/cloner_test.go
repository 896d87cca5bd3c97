package seed

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/goleak"

	"github.com/fitrackapp/fitrack/internal/workouts"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type repoMock struct {
	mutex    sync.Mutex
	sessions []workouts.WorkoutSession
}

func (r *repoMock) ListForUser(_ context.Context, userID string, _, _ *time.Time) ([]workouts.WorkoutSession, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var found []workouts.WorkoutSession
	for _, session := range r.sessions {
		if session.UserID == userID {
			found = append(found, session)
		}
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].Date.After(found[j].Date)
	})
	return found, nil
}

func (r *repoMock) InsertMany(_ context.Context, sessions []workouts.WorkoutSession) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i := range sessions {
		session := sessions[i]
		if session.ID.IsZero() {
			session.ID = primitive.NewObjectID()
		}
		r.sessions = append(r.sessions, session)
	}
	return nil
}

func templateSession(name string, date time.Time) workouts.WorkoutSession {
	return workouts.WorkoutSession{
		ID:          primitive.NewObjectID(),
		UserID:      DefaultTemplateUserID,
		Date:        date,
		Name:        name,
		MuscleGroup: workouts.MuscleGroupChest,
		Stats: []workouts.ExerciseStat{
			{
				Date:   date,
				Rating: 3,
				Sets: []workouts.Set{
					{SetNumber: 1, Reps: 10, Weight: 80, Rest: 60, Completed: true},
				},
			},
		},
		Completed: true,
		CreatedAt: date,
		UpdatedAt: date,
	}
}

func TestCloner_Clone(t *testing.T) {
	templateDate := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	repo := &repoMock{
		sessions: []workouts.WorkoutSession{
			templateSession("Bench Press", templateDate),
			templateSession("Squat", templateDate.Add(24*time.Hour)),
		},
	}

	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	cloner := NewCloner(repo)
	cloner.NowFunc = func() time.Time { return now }

	cloned, err := cloner.Clone(context.Background(), "", "new-user")
	require.NoError(t, err)
	assert.Equal(t, 2, cloned)

	copies, err := repo.ListForUser(context.Background(), "new-user", nil, nil)
	require.NoError(t, err)
	require.Len(t, copies, 2)

	templates, err := repo.ListForUser(context.Background(), DefaultTemplateUserID, nil, nil)
	require.NoError(t, err)

	for _, copy := range copies {
		assert.Equal(t, "new-user", copy.UserID)
		assert.Equal(t, now, copy.CreatedAt)
		assert.Equal(t, now, copy.UpdatedAt)
		for _, template := range templates {
			assert.NotEqual(t, template.ID, copy.ID)
		}
	}
}

func TestCloner_Clone_deepCopiesStats(t *testing.T) {
	templateDate := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	repo := &repoMock{
		sessions: []workouts.WorkoutSession{templateSession("Bench Press", templateDate)},
	}

	cloner := NewCloner(repo)
	_, err := cloner.Clone(context.Background(), DefaultTemplateUserID, "new-user")
	require.NoError(t, err)

	copies, err := repo.ListForUser(context.Background(), "new-user", nil, nil)
	require.NoError(t, err)
	require.Len(t, copies, 1)

	// mutating the copy must not touch the template
	copies[0].Stats[0].Sets[0].Reps = 99

	templates, err := repo.ListForUser(context.Background(), DefaultTemplateUserID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, templates[0].Stats[0].Sets[0].Reps)
}

func TestCloner_Clone_invalidTarget(t *testing.T) {
	cloner := NewCloner(&repoMock{})

	_, err := cloner.Clone(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrInvalidTargetUser)

	_, err = cloner.Clone(context.Background(), "", "   ")
	assert.ErrorIs(t, err, ErrInvalidTargetUser)
}

func TestCloner_Clone_noTemplates(t *testing.T) {
	repo := &repoMock{}
	cloner := NewCloner(repo)

	_, err := cloner.Clone(context.Background(), "", "new-user")
	require.ErrorIs(t, err, ErrNoTemplateWorkouts)

	// nothing written on failure
	copies, err := repo.ListForUser(context.Background(), "new-user", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, copies)
}
