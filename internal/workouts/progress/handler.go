package progress

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/splitfit/internal/auth"
	"github.com/2beens/splitfit/internal/middleware"
	"github.com/2beens/splitfit/internal/telemetry/metrics"
	"github.com/2beens/splitfit/internal/telemetry/tracing"
	"github.com/2beens/splitfit/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service        *Service
	metricsManager *metrics.Manager
}

func NewHandler(service *Service, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service:        service,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	comparisonRouter := mainRouter.PathPrefix("/workouts").Subrouter()
	comparisonRouter.
		HandleFunc("/{id}/comparison", handler.handleGetComparison).
		Methods("GET", "OPTIONS").Name("workout-comparison")

	comparisonRouter.Use(middleware.Cors())
}

type comparisonResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    *ComparisonData `json:"data,omitempty"`
}

func (handler *Handler) handleGetComparison(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "progressHandler.getComparison")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		handler.writeResponse(w, comparisonResponse{
			Success: false,
			Error:   "not logged in",
		}, http.StatusUnauthorized)
		return
	}

	workoutID := mux.Vars(r)["id"]
	if workoutID == "" {
		handler.writeResponse(w, comparisonResponse{
			Success: false,
			Error:   "workout id missing",
		}, http.StatusBadRequest)
		return
	}

	data, err := handler.service.GetWorkoutComparison(ctx, workoutID, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrWorkoutNotFound):
			handler.writeResponse(w, comparisonResponse{
				Success: false,
				Error:   "workout not found",
			}, http.StatusNotFound)
		case errors.Is(err, ErrNotWorkoutOwner):
			handler.writeResponse(w, comparisonResponse{
				Success: false,
				Error:   "workout belongs to another user",
			}, http.StatusForbidden)
		default:
			log.Errorf("workout comparison for %s: %s", workoutID, err)
			handler.writeResponse(w, comparisonResponse{
				Success: false,
				Error:   "internal error",
			}, http.StatusInternalServerError)
		}
		return
	}

	handler.metricsManager.CounterComparisons.Inc()
	handler.writeResponse(w, comparisonResponse{
		Success: true,
		Data:    data,
	}, http.StatusOK)
}

func (handler *Handler) writeResponse(w http.ResponseWriter, resp comparisonResponse, statusCode int) {
	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal comparison response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, statusCode)
}
