package workouts

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

var _ workoutsRepo = (*repoMock)(nil)

type repoMock struct {
	Sessions map[string]*Session

	// scheduled days known to the mock: day id -> owner user id
	ScheduledDays map[int]int
	// exercises known to the mock: exercise id -> day id
	DayExercises map[int]int

	nextSessionID int
	nextSetID     int
	mutex         sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		Sessions:      make(map[string]*Session),
		ScheduledDays: make(map[int]int),
		DayExercises:  make(map[int]int),
		nextSessionID: 1,
		nextSetID:     1,
	}
}

func (r *repoMock) StartSession(_ context.Context, userID, scheduledDayID int, date time.Time) (*Session, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ownerID, ok := r.ScheduledDays[scheduledDayID]
	if !ok || ownerID != userID {
		return nil, ErrScheduledDayNotFound
	}

	session := &Session{
		ID:             fmt.Sprintf("session-%d", r.nextSessionID),
		UserID:         userID,
		ScheduledDayID: scheduledDayID,
		Date:           date,
		CreatedAt:      time.Now(),
		Sets:           make([]Set, 0),
	}
	r.nextSessionID++
	r.Sessions[session.ID] = session
	return session, nil
}

func (r *repoMock) UpsertSet(_ context.Context, userID int, set Set) (*Set, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, ok := r.Sessions[set.SessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.UserID != userID {
		return nil, ErrNotSessionOwner
	}

	dayID, ok := r.DayExercises[set.DayExerciseID]
	if !ok || dayID != session.ScheduledDayID {
		return nil, ErrExerciseNotFound
	}

	set.CreatedAt = time.Now()
	for i := range session.Sets {
		if session.Sets[i].DayExerciseID == set.DayExerciseID &&
			session.Sets[i].SetNumber == set.SetNumber {
			set.ID = session.Sets[i].ID
			session.Sets[i] = set
			return &set, nil
		}
	}

	set.ID = r.nextSetID
	r.nextSetID++
	session.Sets = append(session.Sets, set)
	return &set, nil
}

func (r *repoMock) GetSession(_ context.Context, id string, userID int) (*Session, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, ok := r.Sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.UserID != userID {
		return nil, ErrNotSessionOwner
	}
	return session, nil
}

func (r *repoMock) List(_ context.Context, userID, page, size int) ([]Session, int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	userSessions := make([]Session, 0)
	for _, s := range r.Sessions {
		if s.UserID == userID {
			userSessions = append(userSessions, *s)
		}
	}
	sort.Slice(userSessions, func(i, j int) bool {
		if userSessions[i].CreatedAt.Equal(userSessions[j].CreatedAt) {
			return userSessions[i].ID > userSessions[j].ID
		}
		return userSessions[i].CreatedAt.After(userSessions[j].CreatedAt)
	})

	total := len(userSessions)
	from := (page - 1) * size
	if from >= total {
		return []Session{}, total, nil
	}
	to := from + size
	if to > total {
		to = total
	}
	return userSessions[from:to], total, nil
}

func (r *repoMock) DeleteSession(_ context.Context, id string, userID int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	session, ok := r.Sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if session.UserID != userID {
		return ErrNotSessionOwner
	}
	delete(r.Sessions, id)
	return nil
}
