package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/splitfit/internal/auth"
	"github.com/2beens/splitfit/internal/middleware"
	"github.com/2beens/splitfit/internal/telemetry/metrics"
	"github.com/2beens/splitfit/internal/telemetry/tracing"
	"github.com/2beens/splitfit/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultListPage = 1
	defaultListSize = 10
)

type workoutsRepo interface {
	StartSession(ctx context.Context, userID, scheduledDayID int, date time.Time) (*Session, error)
	UpsertSet(ctx context.Context, userID int, set Set) (*Set, error)
	GetSession(ctx context.Context, id string, userID int) (*Session, error)
	List(ctx context.Context, userID, page, size int) ([]Session, int, error)
	DeleteSession(ctx context.Context, id string, userID int) error
}

type Handler struct {
	repo           workoutsRepo
	metricsManager *metrics.Manager
}

func NewHandler(repo workoutsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	workoutsRouter := mainRouter.PathPrefix("/workouts").Subrouter()
	workoutsRouter.
		HandleFunc("", handler.handleStartSession).
		Methods("POST", "OPTIONS").Name("start-workout")
	workoutsRouter.
		HandleFunc("", handler.handleList).
		Methods("GET", "OPTIONS").Name("list-workouts")
	workoutsRouter.
		HandleFunc("/{id}", handler.handleGetSession).
		Methods("GET", "OPTIONS").Name("get-workout")
	workoutsRouter.
		HandleFunc("/{id}", handler.handleDeleteSession).
		Methods("DELETE", "OPTIONS").Name("delete-workout")
	workoutsRouter.
		HandleFunc("/{id}/sets", handler.handleLogSet).
		Methods("POST", "OPTIONS").Name("log-set")

	workoutsRouter.Use(middleware.Cors())
}

type startSessionRequest struct {
	ScheduledDayID int    `json:"scheduledDayId"`
	Date           string `json:"date"`
}

func (handler *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.startSession")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("start session, unmarshal json params: %s", err)
		http.Error(w, "start session failed", http.StatusBadRequest)
		return
	}

	date := time.Now()
	if req.Date != "" {
		var err error
		if date, err = time.Parse("2006-01-02", req.Date); err != nil {
			http.Error(w, "error, invalid date", http.StatusBadRequest)
			return
		}
	}

	session, err := handler.repo.StartSession(ctx, userID, req.ScheduledDayID, date)
	if err != nil {
		if errors.Is(err, ErrScheduledDayNotFound) {
			http.Error(w, "scheduled day not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to start session for user %d: %s", userID, err)
		http.Error(w, "start session failed", http.StatusInternalServerError)
		return
	}

	span.SetAttributes(attribute.String("session.id", session.ID))
	handler.metricsManager.CounterWorkoutSessions.Inc()

	sessionJson, err := json.Marshal(session)
	if err != nil {
		log.Errorf("marshal session: %s", err)
		http.Error(w, "marshal session error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, sessionJson, http.StatusCreated)
}

type logSetRequest struct {
	DayExerciseID int     `json:"dayExerciseId"`
	SetNumber     int     `json:"setNumber"`
	Reps          int     `json:"reps"`
	Weight        float64 `json:"weight"`
}

func (handler *Handler) handleLogSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.logSet")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	sessionID := mux.Vars(r)["id"]

	var req logSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("log set, unmarshal json params: %s", err)
		http.Error(w, "log set failed", http.StatusBadRequest)
		return
	}

	if req.SetNumber < 1 {
		http.Error(w, "error, set number must be positive", http.StatusBadRequest)
		return
	}
	if req.Reps < 0 {
		http.Error(w, "error, reps cannot be negative", http.StatusBadRequest)
		return
	}
	if req.Weight < 0 {
		http.Error(w, "error, weight cannot be negative", http.StatusBadRequest)
		return
	}

	set, err := handler.repo.UpsertSet(ctx, userID, Set{
		SessionID:     sessionID,
		DayExerciseID: req.DayExerciseID,
		SetNumber:     req.SetNumber,
		Reps:          req.Reps,
		Weight:        req.Weight,
	})
	if err != nil {
		handler.writeSessionError(w, sessionID, err, "log set")
		return
	}

	handler.metricsManager.CounterLoggedSets.Inc()

	setJson, err := json.Marshal(set)
	if err != nil {
		log.Errorf("marshal set: %s", err)
		http.Error(w, "marshal set error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, setJson)
}

func (handler *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.getSession")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	sessionID := mux.Vars(r)["id"]
	session, err := handler.repo.GetSession(ctx, sessionID, userID)
	if err != nil {
		handler.writeSessionError(w, sessionID, err, "get session")
		return
	}

	sessionJson, err := json.Marshal(session)
	if err != nil {
		log.Errorf("marshal session %s: %s", sessionID, err)
		http.Error(w, "marshal session error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, sessionJson)
}

type listResponse struct {
	Sessions []Session `json:"sessions"`
	Total    int       `json:"total"`
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	page := defaultListPage
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		var err error
		if page, err = strconv.Atoi(pageStr); err != nil || page < 1 {
			http.Error(w, "error, invalid page", http.StatusBadRequest)
			return
		}
	}
	size := defaultListSize
	if sizeStr := r.URL.Query().Get("size"); sizeStr != "" {
		var err error
		if size, err = strconv.Atoi(sizeStr); err != nil || size < 1 {
			http.Error(w, "error, invalid size", http.StatusBadRequest)
			return
		}
	}

	sessions, total, err := handler.repo.List(ctx, userID, page, size)
	if err != nil {
		log.Errorf("failed to list sessions for user %d: %s", userID, err)
		http.Error(w, "list sessions failed", http.StatusInternalServerError)
		return
	}

	span.SetAttributes(attribute.Int("total", total))

	respJson, err := json.Marshal(listResponse{
		Sessions: sessions,
		Total:    total,
	})
	if err != nil {
		log.Errorf("marshal sessions: %s", err)
		http.Error(w, "marshal sessions error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func (handler *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.deleteSession")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	sessionID := mux.Vars(r)["id"]
	if err := handler.repo.DeleteSession(ctx, sessionID, userID); err != nil {
		handler.writeSessionError(w, sessionID, err, "delete session")
		return
	}

	log.Debugf("session %s deleted by user %d", sessionID, userID)
	pkg.WriteTextResponseOK(w, "deleted")
}

func (handler *Handler) writeSessionError(w http.ResponseWriter, sessionID string, err error, action string) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		http.Error(w, "session not found", http.StatusNotFound)
	case errors.Is(err, ErrNotSessionOwner):
		http.Error(w, "session belongs to another user", http.StatusForbidden)
	case errors.Is(err, ErrExerciseNotFound):
		http.Error(w, "exercise not found", http.StatusNotFound)
	default:
		log.Errorf("%s %s: %s", action, sessionID, err)
		http.Error(w, fmt.Sprintf("%s failed", action), http.StatusInternalServerError)
	}
}
