package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/splitfit/internal/telemetry/tracing"
	"github.com/2beens/splitfit/internal/workouts/progress"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
)

var _ progress.SnapshotLoader = (*Repo)(nil)

// LoadSnapshot assembles the read-only workout projection the comparison
// service consumes: session head data plus, for every exercise with at
// least one logged set, its sets ordered by set number. Exercise order
// follows the configured position within the scheduled day.
func (r *Repo) LoadSnapshot(ctx context.Context, sessionID string) (_ *progress.WorkoutSnapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.loadSnapshot")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.id", sessionID))

	snapshot := &progress.WorkoutSnapshot{}
	err = r.db.
		QueryRow(ctx, `
			SELECT ws.id, ws.date, ws.created_at, ws.user_id, sd.id, sd.name, s.name
			FROM workout_session ws
			JOIN split_day sd ON ws.scheduled_day_id = sd.id
			JOIN split s ON sd.split_id = s.id
			WHERE ws.id = $1
		`, sessionID).
		Scan(
			&snapshot.ID, &snapshot.Date, &snapshot.CreatedAt, &snapshot.UserID,
			&snapshot.ScheduledDayKey, &snapshot.DayName, &snapshot.SplitName,
		)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, progress.ErrWorkoutNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT de.id, de.name, de.muscle_group, wset.set_number, wset.reps, wset.weight
		FROM workout_set wset
		JOIN day_exercise de ON wset.day_exercise_id = de.id
		WHERE wset.session_id = $1
		ORDER BY de.position, de.id, wset.set_number;
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query sets: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	setRows := make([]exerciseSetRow, 0)
	for rows.Next() {
		var row exerciseSetRow
		if err := rows.Scan(
			&row.ExerciseID, &row.ExerciseName, &row.MuscleGroup,
			&row.Set.SetNumber, &row.Set.Reps, &row.Set.Weight,
		); err != nil {
			return nil, err
		}
		setRows = append(setRows, row)
	}

	snapshot.Exercises = groupExerciseRows(setRows)
	return snapshot, nil
}

type exerciseSetRow struct {
	ExerciseID   int
	ExerciseName string
	MuscleGroup  string
	Set          progress.SetSnapshot
}

// groupExerciseRows folds ordered set rows into exercise snapshots, one
// entry per exercise ID in order of first appearance. Grouping goes
// through an ID index rather than row adjacency, so rows of one exercise
// never produce duplicate entries even if they arrive interleaved.
func groupExerciseRows(setRows []exerciseSetRow) []progress.ExerciseSnapshot {
	exercises := make([]progress.ExerciseSnapshot, 0, len(setRows))
	indexByID := make(map[int]int)
	for _, row := range setRows {
		i, ok := indexByID[row.ExerciseID]
		if !ok {
			i = len(exercises)
			indexByID[row.ExerciseID] = i
			exercises = append(exercises, progress.ExerciseSnapshot{
				ID:          row.ExerciseID,
				Name:        row.ExerciseName,
				MuscleGroup: progress.NormalizeMuscleGroup(row.MuscleGroup),
				Sets:        []progress.SetSnapshot{},
			})
		}
		exercises[i].Sets = append(exercises[i].Sets, row.Set)
	}
	return exercises
}

// GetSessionHead is the lightweight lookup used for predecessor resolution.
func (r *Repo) GetSessionHead(ctx context.Context, sessionID string) (_ *progress.SessionHead, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.getSessionHead")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.id", sessionID))

	head := &progress.SessionHead{}
	err = r.db.
		QueryRow(ctx, `
			SELECT scheduled_day_id, user_id, created_at
			FROM workout_session
			WHERE id = $1
		`, sessionID).
		Scan(&head.ScheduledDayKey, &head.UserID, &head.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, progress.ErrWorkoutNotFound
		}
		return nil, err
	}
	return head, nil
}

// FindMostRecentPriorSession returns the ID of the newest session of the
// same user and scheduled day created strictly before the given time.
// Session ID breaks createdAt ties deterministically.
func (r *Repo) FindMostRecentPriorSession(
	ctx context.Context,
	scheduledDayKey, userID int,
	before time.Time,
) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.findMostRecentPriorSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("scheduled_day.id", scheduledDayKey))

	var sessionID string
	err = r.db.
		QueryRow(ctx, `
			SELECT id
			FROM workout_session
			WHERE scheduled_day_id = $1 AND user_id = $2 AND created_at < $3
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		`, scheduledDayKey, userID, before).
		Scan(&sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", progress.ErrNoPriorSession
		}
		return "", err
	}
	return sessionID, nil
}
