package auth

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// repoMock is an in-memory stand-in for the mongo backed repo.
type repoMock struct {
	mutex sync.Mutex
	users map[string]*User
}

func newRepoMock() *repoMock {
	return &repoMock{
		users: map[string]*User{},
	}
}

func (r *repoMock) Create(_ context.Context, user User) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return nil, ErrUserExists
		}
	}

	user.ID = primitive.NewObjectID()
	r.users[user.ID.Hex()] = &user
	created := user
	return &created, nil
}

func (r *repoMock) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			found := *user
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *repoMock) GetByID(_ context.Context, id string) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	found := *user
	return &found, nil
}
