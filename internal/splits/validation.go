package splits

import (
	"fmt"
	"strings"
)

// Validate checks a split payload the same way the authoring wizard does,
// step by step, so a hand-crafted API request cannot sneak past the UI rules.
func (s *Split) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("split name is required")
	}
	if len(s.Days) == 0 {
		return fmt.Errorf("split needs at least one day")
	}
	if len(s.Days) > 7 {
		return fmt.Errorf("split cannot have more than 7 days")
	}

	seenWeekdays := make(map[int]bool)
	trainingDays := 0
	for _, day := range s.Days {
		if day.Weekday < 0 || day.Weekday > 6 {
			return fmt.Errorf("day %q: weekday %d out of range", day.Name, day.Weekday)
		}
		if seenWeekdays[day.Weekday] {
			return fmt.Errorf("weekday %d configured twice", day.Weekday)
		}
		seenWeekdays[day.Weekday] = true

		if day.IsRest {
			if len(day.Exercises) > 0 {
				return fmt.Errorf("rest day %q cannot have exercises", day.Name)
			}
			continue
		}

		trainingDays++
		if len(day.Exercises) == 0 {
			return fmt.Errorf("training day %q needs at least one exercise", day.Name)
		}
		for _, ex := range day.Exercises {
			if strings.TrimSpace(ex.Name) == "" {
				return fmt.Errorf("day %q: exercise name is required", day.Name)
			}
			if ex.TargetSets <= 0 {
				return fmt.Errorf("day %q, exercise %q: target sets must be positive", day.Name, ex.Name)
			}
			if ex.TargetReps <= 0 {
				return fmt.Errorf("day %q, exercise %q: target reps must be positive", day.Name, ex.Name)
			}
			if ex.RestSeconds < 0 {
				return fmt.Errorf("day %q, exercise %q: rest seconds cannot be negative", day.Name, ex.Name)
			}
		}
	}

	if trainingDays == 0 {
		return fmt.Errorf("split needs at least one training day")
	}

	return nil
}
