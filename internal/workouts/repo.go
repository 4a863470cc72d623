package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/splitfit/internal/telemetry/tracing"
	"github.com/2beens/splitfit/internal/workouts/progress"
	"github.com/2beens/splitfit/pkg"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// session errors are shared with the comparison service so that
	// errors.Is works across package boundaries
	ErrSessionNotFound = progress.ErrWorkoutNotFound
	ErrNotSessionOwner = progress.ErrNotWorkoutOwner

	ErrScheduledDayNotFound = errors.New("scheduled day not found")
	ErrExerciseNotFound     = errors.New("exercise not found")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// StartSession creates a new workout session for the given scheduled day.
// The day must belong to one of the user's splits.
func (r *Repo) StartSession(ctx context.Context, userID, scheduledDayID int, date time.Time) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.startSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("scheduled_day.id", scheduledDayID))

	var dayOwnerID int
	err = r.db.
		QueryRow(ctx, `
			SELECT s.user_id
			FROM split_day sd
			JOIN split s ON sd.split_id = s.id
			WHERE sd.id = $1
		`, scheduledDayID).
		Scan(&dayOwnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScheduledDayNotFound
		}
		return nil, fmt.Errorf("get scheduled day: %w", err)
	}
	if dayOwnerID != userID {
		return nil, ErrScheduledDayNotFound
	}

	session := &Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		ScheduledDayID: scheduledDayID,
		Date:           date,
		CreatedAt:      time.Now(),
		Sets:           make([]Set, 0),
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO workout_session (id, user_id, scheduled_day_id, date, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		session.ID, session.UserID, session.ScheduledDayID, session.Date, session.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	span.SetAttributes(attribute.String("session.id", session.ID))
	return session, nil
}

// UpsertSet logs a set, overwriting any previously logged values for the
// same (exercise, set number) pair. Last write wins.
func (r *Repo) UpsertSet(ctx context.Context, userID int, set Set) (_ *Set, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.upsertSet")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.id", set.SessionID))
	span.SetAttributes(attribute.Int("set.number", set.SetNumber))

	scheduledDayID, err := r.checkSessionOwner(ctx, set.SessionID, userID)
	if err != nil {
		return nil, err
	}

	// the exercise must belong to the day this session was started for,
	// an exercise of another day or another user's split is as good as
	// missing
	var exerciseDayID int
	err = r.db.
		QueryRow(ctx, `SELECT day_id FROM day_exercise WHERE id = $1`, set.DayExerciseID).
		Scan(&exerciseDayID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExerciseNotFound
		}
		return nil, fmt.Errorf("get exercise day: %w", err)
	}
	if exerciseDayID != scheduledDayID {
		return nil, ErrExerciseNotFound
	}

	set.CreatedAt = time.Now()
	err = r.db.
		QueryRow(ctx, `
			INSERT INTO workout_set (session_id, day_exercise_id, set_number, reps, weight, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (session_id, day_exercise_id, set_number)
			DO UPDATE SET reps = EXCLUDED.reps, weight = EXCLUDED.weight, created_at = EXCLUDED.created_at
			RETURNING id
		`,
			set.SessionID, set.DayExerciseID, set.SetNumber, set.Reps, set.Weight, set.CreatedAt,
		).
		Scan(&set.ID)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return nil, ErrExerciseNotFound
		}
		return nil, fmt.Errorf("upsert set: %w", err)
	}

	return &set, nil
}

func (r *Repo) checkSessionOwner(ctx context.Context, sessionID string, userID int) (scheduledDayID int, err error) {
	var ownerID int
	err = r.db.
		QueryRow(ctx, `SELECT user_id, scheduled_day_id FROM workout_session WHERE id = $1`, sessionID).
		Scan(&ownerID, &scheduledDayID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrSessionNotFound
		}
		return 0, fmt.Errorf("get session owner: %w", err)
	}
	if ownerID != userID {
		return 0, ErrNotSessionOwner
	}
	return scheduledDayID, nil
}

// GetSession returns the session with all its logged sets.
func (r *Repo) GetSession(ctx context.Context, id string, userID int) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.getSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.id", id))

	session := &Session{}
	err = r.db.
		QueryRow(ctx, `
			SELECT id, user_id, scheduled_day_id, date, created_at
			FROM workout_session
			WHERE id = $1
		`, id).
		Scan(&session.ID, &session.UserID, &session.ScheduledDayID, &session.Date, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrNotSessionOwner
	}

	if session.Sets, err = r.getSessionSets(ctx, id); err != nil {
		return nil, fmt.Errorf("get session sets: %w", err)
	}
	return session, nil
}

func (r *Repo) getSessionSets(ctx context.Context, sessionID string) ([]Set, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ws.id, ws.session_id, ws.day_exercise_id, ws.set_number, ws.reps, ws.weight, ws.created_at
		FROM workout_set ws
		JOIN day_exercise de ON ws.day_exercise_id = de.id
		WHERE ws.session_id = $1
		ORDER BY de.position, ws.set_number;
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	sets := make([]Set, 0)
	for rows.Next() {
		var s Set
		if err := rows.Scan(
			&s.ID, &s.SessionID, &s.DayExerciseID, &s.SetNumber, &s.Reps, &s.Weight, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}
	return sets, nil
}

// List returns the user's sessions newest first, one page at a time.
func (r *Repo) List(ctx context.Context, userID, page, size int) (_ []Session, total int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("page", page))
	span.SetAttributes(attribute.Int("size", size))

	if page < 1 {
		return nil, -1, errors.New("page must be greater than 0")
	}
	if size < 1 {
		return nil, -1, errors.New("size must be greater than 0")
	}

	err = r.db.
		QueryRow(ctx, `SELECT COUNT(*) FROM workout_session WHERE user_id = $1`, userID).
		Scan(&total)
	if err != nil {
		return nil, -1, fmt.Errorf("count sessions: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, scheduled_day_id, date, created_at
		FROM workout_session
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3;
	`, userID, size, (page-1)*size)
	if err != nil {
		return nil, -1, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, -1, err
	}

	sessions := make([]Session, 0)
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.ScheduledDayID, &s.Date, &s.CreatedAt); err != nil {
			return nil, -1, err
		}
		sessions = append(sessions, s)
	}
	return sessions, total, nil
}

// DeleteSession removes the session and its sets (FK cascade).
func (r *Repo) DeleteSession(ctx context.Context, id string, userID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.deleteSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.id", id))

	if _, err := r.checkSessionOwner(ctx, id, userID); err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM workout_session WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}
