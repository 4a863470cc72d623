package splits

import "time"

// Split is a weekly training plan. Every active split has up to seven
// SplitDay entries, one per weekday, each either a rest day or a training
// day with its configured exercises.
type Split struct {
	ID        int        `json:"id"`
	UserID    int        `json:"userId"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
	Days      []SplitDay `json:"days"`
}

// SplitDay is one weekday slot of a split. Its ID doubles as the scheduled
// day key that workout sessions reference.
type SplitDay struct {
	ID        int           `json:"id"`
	SplitID   int           `json:"splitId"`
	Weekday   int           `json:"weekday"` // 0 = Monday .. 6 = Sunday
	Name      string        `json:"name"`
	IsRest    bool          `json:"isRest"`
	Exercises []DayExercise `json:"exercises"`
}

// DayExercise is an exercise configured for a training day. The row ID is
// stable across sessions and is what progress comparison matches on.
type DayExercise struct {
	ID          int    `json:"id"`
	DayID       int    `json:"dayId"`
	Name        string `json:"name"`
	MuscleGroup string `json:"muscleGroup"`
	TargetSets  int    `json:"targetSets"`
	TargetReps  int    `json:"targetReps"`
	RestSeconds int    `json:"restSeconds"`
	Position    int    `json:"position"`
}
