package workouts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fitrackapp/fitrack/internal/telemetry/metrics"
	"github.com/fitrackapp/fitrack/internal/telemetry/tracing"
)

var ErrValidation = errors.New("validation failed")

const (
	defaultRestSeconds = 60
	defaultRating      = 1
)

type workoutsRepo interface {
	Add(ctx context.Context, session *WorkoutSession) (*WorkoutSession, error)
	Get(ctx context.Context, id string) (*WorkoutSession, error)
	ListForUser(ctx context.Context, userID string, from, to *time.Time) ([]WorkoutSession, error)
	Update(ctx context.Context, session *WorkoutSession) error
}

// SetInput is one set as sent by the client. Reps is the only
// required field, the rest fall back to defaults.
type SetInput struct {
	Reps   *int     `json:"reps"`
	Weight *float64 `json:"weight"`
	Rest   *int     `json:"rest"`
	Notes  string   `json:"notes"`
}

type AddStatsRequest struct {
	Name        string     `json:"name"`
	MuscleGroup string     `json:"muscleGroup"`
	Date        time.Time  `json:"date"`
	Sets        []SetInput `json:"sets"`
	Rating      int        `json:"rating"`
	Duration    int        `json:"duration"`
	Notes       string     `json:"notes"`
}

type UpdateStatsRequest struct {
	Date     time.Time  `json:"date"`
	Sets     []SetInput `json:"sets"`
	Rating   int        `json:"rating"`
	Duration int        `json:"duration"`
	Notes    string     `json:"notes"`
}

type Service struct {
	repo           workoutsRepo
	metricsManager *metrics.Manager

	// injectable for deterministic tests
	NowFunc func() time.Time
}

func NewService(repo workoutsRepo, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:           repo,
		metricsManager: metricsManager,
		NowFunc:        time.Now,
	}
}

// buildSets validates the incoming sets and assigns dense
// 1-based set numbers.
func buildSets(inputs []SetInput) ([]Set, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one set is required", ErrValidation)
	}

	sets := make([]Set, 0, len(inputs))
	for i, in := range inputs {
		if in.Reps == nil {
			return nil, fmt.Errorf("%w: set %d is missing required 'reps' field", ErrValidation, i+1)
		}
		if *in.Reps <= 0 {
			return nil, fmt.Errorf("%w: set %d has invalid 'reps' value", ErrValidation, i+1)
		}

		set := Set{
			SetNumber: i + 1,
			Reps:      *in.Reps,
			Rest:      defaultRestSeconds,
			Completed: true,
			Notes:     in.Notes,
		}
		if in.Weight != nil {
			if *in.Weight < 0 {
				return nil, fmt.Errorf("%w: set %d has negative 'weight' value", ErrValidation, i+1)
			}
			set.Weight = *in.Weight
		}
		if in.Rest != nil {
			if *in.Rest < 0 {
				return nil, fmt.Errorf("%w: set %d has negative 'rest' value", ErrValidation, i+1)
			}
			set.Rest = *in.Rest
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// AddExerciseStats creates a new workout session entry for the
// user. Every call appends a new document, deduplication across
// days happens only on update.
func (s *Service) AddExerciseStats(ctx context.Context, userID string, req AddStatsRequest) (_ *WorkoutSession, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workoutsService.addExerciseStats")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: exercise name is required", ErrValidation)
	}
	if strings.TrimSpace(req.MuscleGroup) == "" {
		return nil, fmt.Errorf("%w: muscle group is required", ErrValidation)
	}

	sets, err := buildSets(req.Sets)
	if err != nil {
		return nil, err
	}

	now := s.NowFunc()
	date := req.Date
	if date.IsZero() {
		date = now
	}

	rating := req.Rating
	if rating == 0 {
		rating = defaultRating
	}

	session := &WorkoutSession{
		UserID:      userID,
		Date:        date,
		Name:        strings.TrimSpace(req.Name),
		MuscleGroup: NormalizeMuscleGroup(req.MuscleGroup),
		Stats: []ExerciseStat{
			{
				Date:     DayKey(date),
				Sets:     sets,
				Rating:   rating,
				Duration: req.Duration,
				Notes:    req.Notes,
			},
		},
		Notes:     req.Notes,
		Completed: true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	added, err := s.repo.Add(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("add exercise stats: %w", err)
	}

	if s.metricsManager != nil {
		s.metricsManager.CounterExerciseStatsAdded.Inc()
	}
	log.Debugf("workouts: added exercise [%s] for user [%s]", added.Name, userID)

	return added, nil
}

// UpdateExerciseStats applies new stats to an existing exercise
// entry. A stat entry from the same calendar day is replaced in
// place, otherwise the new stats are appended to the history.
func (s *Service) UpdateExerciseStats(ctx context.Context, userID, exerciseID string, req UpdateStatsRequest) (_ *WorkoutSession, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workoutsService.updateExerciseStats")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	sets, err := buildSets(req.Sets)
	if err != nil {
		return nil, err
	}

	session, err := s.repo.Get(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		// do not leak the existence of other users' entries
		return nil, ErrExerciseNotFound
	}

	now := s.NowFunc()
	date := req.Date
	if date.IsZero() {
		date = now
	}

	rating := req.Rating
	if rating == 0 {
		rating = defaultRating
	}

	// stat entries are keyed by calendar day, not time of day
	stat := ExerciseStat{
		Date:     DayKey(date),
		Sets:     sets,
		Rating:   rating,
		Duration: req.Duration,
		Notes:    req.Notes,
	}

	replaced := false
	for i := range session.Stats {
		if SameDay(session.Stats[i].Date, date) {
			session.Stats[i] = stat
			replaced = true
			break
		}
	}
	if !replaced {
		session.Stats = append(session.Stats, stat)
	}

	session.UpdatedAt = now
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update exercise stats: %w", err)
	}

	log.Debugf("workouts: updated exercise [%s] for user [%s], same day replace: %t", exerciseID, userID, replaced)

	return session, nil
}

// List returns the user's sessions, optionally date-bounded.
func (s *Service) List(ctx context.Context, userID string, from, to *time.Time) (_ []WorkoutSession, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workoutsService.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	sessions, err := s.repo.ListForUser(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list workout sessions: %w", err)
	}
	return sessions, nil
}
