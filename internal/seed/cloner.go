package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fitrackapp/fitrack/internal/telemetry/tracing"
	"github.com/fitrackapp/fitrack/internal/workouts"
)

var (
	ErrInvalidTargetUser  = errors.New("invalid target user id")
	ErrNoTemplateWorkouts = errors.New("no template workouts found")
)

// DefaultTemplateUserID owns the workout entries cloned into
// fresh accounts.
const DefaultTemplateUserID = "demo-user"

type workoutsRepo interface {
	ListForUser(ctx context.Context, userID string, from, to *time.Time) ([]workouts.WorkoutSession, error)
	InsertMany(ctx context.Context, sessions []workouts.WorkoutSession) error
}

// Cloner copies a template user's workout entries to another
// user, used to seed demo content for new accounts.
type Cloner struct {
	repo workoutsRepo

	// injectable for deterministic tests
	NowFunc func() time.Time
}

func NewCloner(repo workoutsRepo) *Cloner {
	return &Cloner{
		repo:    repo,
		NowFunc: time.Now,
	}
}

// Clone copies every workout entry of templateUserID to
// targetUserID. Copies get fresh ids and timestamps. Fails loudly
// when the template user has no entries, nothing is written then.
func (c *Cloner) Clone(ctx context.Context, templateUserID, targetUserID string) (cloned int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "seedCloner.clone")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if strings.TrimSpace(targetUserID) == "" {
		return 0, ErrInvalidTargetUser
	}
	if templateUserID == "" {
		templateUserID = DefaultTemplateUserID
	}

	templates, err := c.repo.ListForUser(ctx, templateUserID, nil, nil)
	if err != nil {
		return 0, fmt.Errorf("list template workouts: %w", err)
	}
	if len(templates) == 0 {
		return 0, fmt.Errorf("%w: user %s", ErrNoTemplateWorkouts, templateUserID)
	}

	now := c.NowFunc()
	copies := make([]workouts.WorkoutSession, 0, len(templates))
	for i := range templates {
		session := templates[i]
		session.ID = primitive.NilObjectID
		session.UserID = targetUserID
		session.CreatedAt = now
		session.UpdatedAt = now

		stats := make([]workouts.ExerciseStat, len(session.Stats))
		for j, stat := range session.Stats {
			stat.Sets = append([]workouts.Set{}, stat.Sets...)
			stats[j] = stat
		}
		session.Stats = stats

		copies = append(copies, session)
	}

	if err := c.repo.InsertMany(ctx, copies); err != nil {
		return 0, fmt.Errorf("insert cloned workouts: %w", err)
	}

	log.Infof("seed: cloned %d workouts from [%s] to [%s]", len(copies), templateUserID, targetUserID)
	return len(copies), nil
}
