package workouts

import "time"

// Session is one workout instance logged against a scheduled split day.
// There is no explicit "finished" state, the logged sets are the state.
type Session struct {
	ID             string    `json:"id"`
	UserID         int       `json:"userId"`
	ScheduledDayID int       `json:"scheduledDayId"`
	Date           time.Time `json:"date"`
	CreatedAt      time.Time `json:"createdAt"`
	Sets           []Set     `json:"sets,omitempty"`
}

// Set is one logged set. A session holds at most one row per
// (exercise, set number) pair, re-logging overwrites it.
type Set struct {
	ID            int       `json:"id"`
	SessionID     string    `json:"sessionId"`
	DayExerciseID int       `json:"dayExerciseId"`
	SetNumber     int       `json:"setNumber"`
	Reps          int       `json:"reps"`
	Weight        float64   `json:"weight"`
	CreatedAt     time.Time `json:"createdAt"`
}
