package workouts

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// repoMock is an in-memory stand-in for the mongo backed repo.
type repoMock struct {
	mutex    sync.Mutex
	sessions map[string]*WorkoutSession
}

func newRepoMock() *repoMock {
	return &repoMock{
		sessions: map[string]*WorkoutSession{},
	}
}

func (r *repoMock) Add(_ context.Context, session *WorkoutSession) (*WorkoutSession, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if session.ID.IsZero() {
		session.ID = primitive.NewObjectID()
	}
	stored := *session
	r.sessions[session.ID.Hex()] = &stored
	return session, nil
}

func (r *repoMock) Get(_ context.Context, id string) (*WorkoutSession, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrExerciseNotFound
	}
	found := *session
	found.Stats = append([]ExerciseStat{}, session.Stats...)
	return &found, nil
}

func (r *repoMock) ListForUser(_ context.Context, userID string, from, to *time.Time) ([]WorkoutSession, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var sessions []WorkoutSession
	for _, session := range r.sessions {
		if session.UserID != userID {
			continue
		}
		if from != nil && session.Date.Before(*from) {
			continue
		}
		if to != nil && session.Date.After(*to) {
			continue
		}
		sessions = append(sessions, *session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Date.After(sessions[j].Date)
	})
	return sessions, nil
}

func (r *repoMock) Update(_ context.Context, session *WorkoutSession) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.sessions[session.ID.Hex()]; !ok {
		return ErrExerciseNotFound
	}
	stored := *session
	r.sessions[session.ID.Hex()] = &stored
	return nil
}

func (r *repoMock) InsertMany(_ context.Context, sessions []WorkoutSession) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i := range sessions {
		session := sessions[i]
		if session.ID.IsZero() {
			session.ID = primitive.NewObjectID()
		}
		r.sessions[session.ID.Hex()] = &session
	}
	return nil
}

func (r *repoMock) DeleteForUser(_ context.Context, userID string) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var deleted int64
	for id, session := range r.sessions {
		if session.UserID == userID {
			delete(r.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}
