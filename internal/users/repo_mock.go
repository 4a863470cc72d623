package users

import (
	"context"
	"sync"
	"time"
)

var _ usersRepo = (*repoMock)(nil)

type repoMock struct {
	Users  map[int]*User
	nextID int
	mutex  sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		Users:  make(map[int]*User),
		nextID: 1,
	}
}

func (r *repoMock) Add(_ context.Context, username, passwordHash string) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, u := range r.Users {
		if u.Username == username {
			return nil, ErrUsernameTaken
		}
	}

	u := &User{
		ID:           r.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	r.Users[u.ID] = u
	r.nextID++
	return u, nil
}

func (r *repoMock) Get(_ context.Context, id int) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	u, ok := r.Users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (r *repoMock) GetByUsername(_ context.Context, username string) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, u := range r.Users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *repoMock) Delete(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Users[id]; !ok {
		return ErrUserNotFound
	}
	delete(r.Users, id)
	return nil
}
