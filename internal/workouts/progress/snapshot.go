package progress

import (
	"encoding/json"
	"strings"
	"time"
)

// UnknownMuscleGroup marks an absent or unparseable muscle group label.
const UnknownMuscleGroup = "NA"

// WorkoutSnapshot is a read-only projection of one logged workout session,
// built fresh per request and never mutated afterwards. Two snapshots are
// comparable iff they share the scheduled day key and the owner.
type WorkoutSnapshot struct {
	ID              string             `json:"id"`
	Date            time.Time          `json:"date"`
	CreatedAt       time.Time          `json:"createdAt"`
	SplitName       string             `json:"splitName"`
	DayName         string             `json:"dayName"`
	ScheduledDayKey int                `json:"scheduledDayKey"`
	UserID          int                `json:"-"`
	Exercises       []ExerciseSnapshot `json:"exercises"`
}

// ExerciseSnapshot holds the sets logged for one configured exercise within
// a single session. Exercises with zero logged sets never make it into a
// snapshot. The ID is the configured exercise row, stable across sessions.
type ExerciseSnapshot struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	MuscleGroup string        `json:"muscleGroup"`
	Sets        []SetSnapshot `json:"sets"`
}

type SetSnapshot struct {
	SetNumber int     `json:"setNumber"`
	Reps      int     `json:"reps"`
	Weight    float64 `json:"weight"`
}

// NormalizeMuscleGroup turns a stored muscle-group value into a lowercase
// display string. The column historically holds either a raw label or a
// JSON-encoded array of labels; anything empty or unparseable collapses to
// the "NA" sentinel so downstream code never sees the ambiguity.
func NormalizeMuscleGroup(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return UnknownMuscleGroup
	}

	if strings.HasPrefix(raw, "[") {
		var groups []string
		if err := json.Unmarshal([]byte(raw), &groups); err != nil {
			return UnknownMuscleGroup
		}
		nonEmpty := make([]string, 0, len(groups))
		for _, g := range groups {
			if g = strings.TrimSpace(g); g != "" {
				nonEmpty = append(nonEmpty, strings.ToLower(g))
			}
		}
		if len(nonEmpty) == 0 {
			return UnknownMuscleGroup
		}
		return strings.Join(nonEmpty, ", ")
	}

	return strings.ToLower(raw)
}
