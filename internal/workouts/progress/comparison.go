package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/splitfit/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrWorkoutNotFound = errors.New("workout not found")
	ErrNotWorkoutOwner = errors.New("workout belongs to another user")
	ErrNoPriorSession  = errors.New("no prior session")
)

// SessionHead is the lightweight part of a session used to locate its
// predecessor without assembling the full snapshot.
type SessionHead struct {
	ScheduledDayKey int
	UserID          int
	CreatedAt       time.Time
}

// SnapshotLoader is the persistence contract the comparison service
// consumes. Implementations return ErrWorkoutNotFound for unknown session
// IDs and ErrNoPriorSession when no earlier same-day session exists.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, sessionID string) (*WorkoutSnapshot, error)
	GetSessionHead(ctx context.Context, sessionID string) (*SessionHead, error)
	FindMostRecentPriorSession(ctx context.Context, scheduledDayKey, userID int, before time.Time) (string, error)
}

// PredecessorResult is a tagged variant: either no predecessor exists, or
// WorkoutID names the single most recent one.
type PredecessorResult struct {
	Found     bool
	WorkoutID string
}

// ComparisonData is the payload of a successful comparison. PreviousWorkout
// and ProgressData are nil together exactly when the current session is the
// first of its scheduled day, never independently.
type ComparisonData struct {
	CurrentWorkout  *WorkoutSnapshot `json:"currentWorkout"`
	PreviousWorkout *WorkoutSnapshot `json:"previousWorkout"`
	ProgressData    *ProgressReport  `json:"progressData"`
}

type Service struct {
	loader SnapshotLoader
}

func NewService(loader SnapshotLoader) *Service {
	return &Service{
		loader: loader,
	}
}

// FindPredecessor locates the most recent other session of the same user
// targeting the same scheduled day, strictly earlier in creation order.
func (s *Service) FindPredecessor(ctx context.Context, workoutID string, userID int) (_ PredecessorResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.findPredecessor")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", workoutID))

	head, err := s.loader.GetSessionHead(ctx, workoutID)
	if err != nil {
		return PredecessorResult{}, fmt.Errorf("get session head: %w", err)
	}
	if head.UserID != userID {
		return PredecessorResult{}, ErrNotWorkoutOwner
	}

	prevID, err := s.loader.FindMostRecentPriorSession(ctx, head.ScheduledDayKey, userID, head.CreatedAt)
	if err != nil {
		if errors.Is(err, ErrNoPriorSession) {
			return PredecessorResult{}, nil
		}
		return PredecessorResult{}, fmt.Errorf("find prior session: %w", err)
	}

	return PredecessorResult{Found: true, WorkoutID: prevID}, nil
}

// GetWorkoutComparison assembles the current snapshot, resolves its
// predecessor, and computes the progress report. A missing predecessor is
// not an error, it yields ComparisonData with only the current workout set.
func (s *Service) GetWorkoutComparison(ctx context.Context, workoutID string, userID int) (_ *ComparisonData, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.getWorkoutComparison")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("workout.id", workoutID))

	predecessor, err := s.FindPredecessor(ctx, workoutID, userID)
	if err != nil {
		return nil, err
	}

	current, err := s.loader.LoadSnapshot(ctx, workoutID)
	if err != nil {
		return nil, fmt.Errorf("load current snapshot: %w", err)
	}

	if !predecessor.Found {
		span.SetAttributes(attribute.Bool("predecessor.found", false))
		return &ComparisonData{CurrentWorkout: current}, nil
	}
	span.SetAttributes(attribute.Bool("predecessor.found", true))
	span.SetAttributes(attribute.String("predecessor.id", predecessor.WorkoutID))

	previous, err := s.loader.LoadSnapshot(ctx, predecessor.WorkoutID)
	if err != nil {
		return nil, fmt.Errorf("load previous snapshot: %w", err)
	}

	report := ComputeProgress(*current, *previous)
	return &ComparisonData{
		CurrentWorkout:  current,
		PreviousWorkout: previous,
		ProgressData:    &report,
	}, nil
}
