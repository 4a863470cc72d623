package progress

// ProgressReport is the week-over-week diff of two workout snapshots,
// constructed once per comparison and discarded with the response.
type ProgressReport struct {
	Exercises       []ExerciseProgress `json:"exercises"`
	OverallProgress OverallProgress    `json:"overallProgress"`
}

// ExerciseProgress aggregates the matched sets of one exercise present in
// both snapshots. Weight totals are volume sums (reps x weight), reps
// totals are plain rep sums.
type ExerciseProgress struct {
	ExerciseID               int           `json:"exerciseId"`
	ExerciseName             string        `json:"exerciseName"`
	MuscleGroup              string        `json:"muscleGroup"`
	Sets                     []SetProgress `json:"sets"`
	TotalWeightChange        float64       `json:"totalWeightChange"`
	TotalRepsChange          int           `json:"totalRepsChange"`
	TotalWeightChangePercent float64       `json:"totalWeightChangePercent"`
	TotalRepsChangePercent   float64       `json:"totalRepsChangePercent"`
}

type SetProgress struct {
	SetNumber           int     `json:"setNumber"`
	CurrentReps         int     `json:"currentReps"`
	PreviousReps        int     `json:"previousReps"`
	CurrentWeight       float64 `json:"currentWeight"`
	PreviousWeight      float64 `json:"previousWeight"`
	RepsChange          int     `json:"repsChange"`
	WeightChange        float64 `json:"weightChange"`
	RepsChangePercent   float64 `json:"repsChangePercent"`
	WeightChangePercent float64 `json:"weightChangePercent"`
}

type OverallProgress struct {
	TotalWeightChange        float64 `json:"totalWeightChange"`
	TotalRepsChange          int     `json:"totalRepsChange"`
	TotalWeightChangePercent float64 `json:"totalWeightChangePercent"`
	TotalRepsChangePercent   float64 `json:"totalRepsChangePercent"`
}

// changePercent returns the percentage delta relative to previous. A zero
// or negative previous value yields exactly 0, never Inf or NaN, even when
// the change itself is nonzero.
func changePercent(change, previous float64) float64 {
	if previous > 0 {
		return change / previous * 100
	}
	return 0
}

// ComputeProgress diffs the current snapshot against the previous one.
//
// Exercises are matched by ID, sets within a matched exercise pair by set
// number; anything without a counterpart on the other side is left out of
// the report and contributes nothing to the aggregated totals. Output order
// follows the current snapshot.
func ComputeProgress(current, previous WorkoutSnapshot) ProgressReport {
	prevExercises := make(map[int]ExerciseSnapshot, len(previous.Exercises))
	for _, ex := range previous.Exercises {
		prevExercises[ex.ID] = ex
	}

	report := ProgressReport{
		Exercises: make([]ExerciseProgress, 0, len(current.Exercises)),
	}

	var overallCurrentWeight, overallPreviousWeight float64
	var overallCurrentReps, overallPreviousReps int

	for _, currEx := range current.Exercises {
		prevEx, ok := prevExercises[currEx.ID]
		if !ok {
			continue
		}

		prevSets := make(map[int]SetSnapshot, len(prevEx.Sets))
		for _, set := range prevEx.Sets {
			prevSets[set.SetNumber] = set
		}

		exProgress := ExerciseProgress{
			ExerciseID:   currEx.ID,
			ExerciseName: currEx.Name,
			MuscleGroup:  currEx.MuscleGroup,
			Sets:         make([]SetProgress, 0, len(currEx.Sets)),
		}

		var currentWeight, previousWeight float64
		var currentReps, previousReps int

		for _, currSet := range currEx.Sets {
			prevSet, ok := prevSets[currSet.SetNumber]
			if !ok {
				continue
			}

			repsChange := currSet.Reps - prevSet.Reps
			weightChange := currSet.Weight - prevSet.Weight
			exProgress.Sets = append(exProgress.Sets, SetProgress{
				SetNumber:           currSet.SetNumber,
				CurrentReps:         currSet.Reps,
				PreviousReps:        prevSet.Reps,
				CurrentWeight:       currSet.Weight,
				PreviousWeight:      prevSet.Weight,
				RepsChange:          repsChange,
				WeightChange:        weightChange,
				RepsChangePercent:   changePercent(float64(repsChange), float64(prevSet.Reps)),
				WeightChangePercent: changePercent(weightChange, prevSet.Weight),
			})

			currentWeight += float64(currSet.Reps) * currSet.Weight
			previousWeight += float64(prevSet.Reps) * prevSet.Weight
			currentReps += currSet.Reps
			previousReps += prevSet.Reps
		}

		exProgress.TotalWeightChange = currentWeight - previousWeight
		exProgress.TotalRepsChange = currentReps - previousReps
		exProgress.TotalWeightChangePercent = changePercent(exProgress.TotalWeightChange, previousWeight)
		exProgress.TotalRepsChangePercent = changePercent(float64(exProgress.TotalRepsChange), float64(previousReps))
		report.Exercises = append(report.Exercises, exProgress)

		overallCurrentWeight += currentWeight
		overallPreviousWeight += previousWeight
		overallCurrentReps += currentReps
		overallPreviousReps += previousReps
	}

	report.OverallProgress = OverallProgress{
		TotalWeightChange: overallCurrentWeight - overallPreviousWeight,
		TotalRepsChange:   overallCurrentReps - overallPreviousReps,
		TotalWeightChangePercent: changePercent(
			overallCurrentWeight-overallPreviousWeight, overallPreviousWeight,
		),
		TotalRepsChangePercent: changePercent(
			float64(overallCurrentReps-overallPreviousReps), float64(overallPreviousReps),
		),
	}

	return report
}
