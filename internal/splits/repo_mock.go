package splits

import (
	"context"
	"sync"
	"time"
)

var _ splitsRepo = (*repoMock)(nil)

type repoMock struct {
	Splits map[int]*Split

	nextID int
	mutex  sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		Splits: make(map[int]*Split),
		nextID: 1,
	}
}

func (r *repoMock) Add(_ context.Context, split Split) (*Split, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	split.ID = r.nextID
	r.nextID++
	if split.CreatedAt.IsZero() {
		split.CreatedAt = time.Now()
	}
	for di := range split.Days {
		split.Days[di].ID = r.nextID
		split.Days[di].SplitID = split.ID
		r.nextID++
		for ei := range split.Days[di].Exercises {
			split.Days[di].Exercises[ei].ID = r.nextID
			split.Days[di].Exercises[ei].DayID = split.Days[di].ID
			split.Days[di].Exercises[ei].Position = ei + 1
			r.nextID++
		}
	}

	r.Splits[split.ID] = &split
	return &split, nil
}

func (r *repoMock) Get(_ context.Context, id, userID int) (*Split, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	s, ok := r.Splits[id]
	if !ok || s.UserID != userID {
		return nil, ErrSplitNotFound
	}
	return s, nil
}

func (r *repoMock) ListForUser(_ context.Context, userID int) ([]Split, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	userSplits := make([]Split, 0)
	for _, s := range r.Splits {
		if s.UserID == userID {
			userSplits = append(userSplits, *s)
		}
	}
	return userSplits, nil
}

func (r *repoMock) Delete(_ context.Context, id, userID int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	s, ok := r.Splits[id]
	if !ok || s.UserID != userID {
		return ErrSplitNotFound
	}
	delete(r.Splits, id)
	return nil
}
