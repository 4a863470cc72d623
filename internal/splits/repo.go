package splits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/splitfit/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrSplitNotFound = errors.New("split not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Add stores the split together with its days and exercises in one
// transaction and returns the split with all generated IDs filled in.
func (r *Repo) Add(ctx context.Context, split Split) (_ *Split, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.splits.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if split.CreatedAt.IsZero() {
		split.CreatedAt = time.Now()
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO split (user_id, name, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`,
		split.UserID, split.Name, split.CreatedAt,
	).Scan(&split.ID)
	if err != nil {
		return nil, fmt.Errorf("insert split: %w", err)
	}

	for di := range split.Days {
		day := &split.Days[di]
		day.SplitID = split.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO split_day (split_id, weekday, name, is_rest)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`,
			day.SplitID, day.Weekday, day.Name, day.IsRest,
		).Scan(&day.ID)
		if err != nil {
			return nil, fmt.Errorf("insert split day: %w", err)
		}

		for ei := range day.Exercises {
			ex := &day.Exercises[ei]
			ex.DayID = day.ID
			// positions are server-assigned from payload order, one
			// sequence per day, so snapshot ordering stays unambiguous
			ex.Position = ei + 1
			err = tx.QueryRow(ctx, `
				INSERT INTO day_exercise
					(day_id, name, muscle_group, target_sets, target_reps, rest_seconds, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id
			`,
				ex.DayID, ex.Name, ex.MuscleGroup,
				ex.TargetSets, ex.TargetReps, ex.RestSeconds, ex.Position,
			).Scan(&ex.ID)
			if err != nil {
				return nil, fmt.Errorf("insert day exercise: %w", err)
			}
		}
	}

	span.SetAttributes(attribute.Int("split.id", split.ID))
	return &split, nil
}

// Get assembles the full nested split. Ownership is part of the lookup so a
// foreign split behaves the same as a missing one.
func (r *Repo) Get(ctx context.Context, id, userID int) (_ *Split, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.splits.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	split := &Split{}
	err = r.db.
		QueryRow(ctx, `
			SELECT id, user_id, name, created_at
			FROM split
			WHERE id = $1 AND user_id = $2
		`, id, userID).
		Scan(&split.ID, &split.UserID, &split.Name, &split.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSplitNotFound
		}
		return nil, err
	}

	if split.Days, err = r.getDays(ctx, split.ID); err != nil {
		return nil, fmt.Errorf("get days: %w", err)
	}
	return split, nil
}

func (r *Repo) getDays(ctx context.Context, splitID int) ([]SplitDay, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, split_id, weekday, name, is_rest
		FROM split_day
		WHERE split_id = $1
		ORDER BY weekday;
	`, splitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	days := make([]SplitDay, 0)
	for rows.Next() {
		var day SplitDay
		if err := rows.Scan(&day.ID, &day.SplitID, &day.Weekday, &day.Name, &day.IsRest); err != nil {
			return nil, err
		}
		days = append(days, day)
	}

	for i := range days {
		if days[i].Exercises, err = r.getDayExercises(ctx, days[i].ID); err != nil {
			return nil, err
		}
	}
	return days, nil
}

func (r *Repo) getDayExercises(ctx context.Context, dayID int) ([]DayExercise, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, day_id, name, muscle_group, target_sets, target_reps, rest_seconds, position
		FROM day_exercise
		WHERE day_id = $1
		ORDER BY position;
	`, dayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	exercises := make([]DayExercise, 0)
	for rows.Next() {
		var ex DayExercise
		if err := rows.Scan(
			&ex.ID, &ex.DayID, &ex.Name, &ex.MuscleGroup,
			&ex.TargetSets, &ex.TargetReps, &ex.RestSeconds, &ex.Position,
		); err != nil {
			return nil, err
		}
		exercises = append(exercises, ex)
	}
	return exercises, nil
}

// ListForUser returns the user's splits newest first, days included.
func (r *Repo) ListForUser(ctx context.Context, userID int) (_ []Split, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.splits.listforuser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, created_at
		FROM split
		WHERE user_id = $1
		ORDER BY created_at DESC;
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	splitsList := make([]Split, 0)
	for rows.Next() {
		var s Split
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		splitsList = append(splitsList, s)
	}

	for i := range splitsList {
		if splitsList[i].Days, err = r.getDays(ctx, splitsList[i].ID); err != nil {
			return nil, err
		}
	}
	return splitsList, nil
}

// Delete removes the split; days and exercises go with it via FK cascade.
func (r *Repo) Delete(ctx context.Context, id, userID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.splits.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(ctx, `
		DELETE FROM split WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSplitNotFound
	}
	return nil
}
