package splits

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/2beens/splitfit/internal/auth"
	"github.com/2beens/splitfit/internal/middleware"
	"github.com/2beens/splitfit/internal/telemetry/tracing"
	"github.com/2beens/splitfit/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type splitsRepo interface {
	Add(ctx context.Context, split Split) (*Split, error)
	Get(ctx context.Context, id, userID int) (*Split, error)
	ListForUser(ctx context.Context, userID int) ([]Split, error)
	Delete(ctx context.Context, id, userID int) error
}

type Handler struct {
	repo splitsRepo
}

func NewHandler(repo splitsRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	splitsRouter := mainRouter.PathPrefix("/splits").Subrouter()
	splitsRouter.
		HandleFunc("", handler.handleAdd).
		Methods("POST", "OPTIONS").Name("new-split")
	splitsRouter.
		HandleFunc("", handler.handleList).
		Methods("GET", "OPTIONS").Name("list-splits")
	splitsRouter.
		HandleFunc("/{id}", handler.handleGet).
		Methods("GET", "OPTIONS").Name("get-split")
	splitsRouter.
		HandleFunc("/{id}", handler.handleDelete).
		Methods("DELETE", "OPTIONS").Name("delete-split")

	splitsRouter.Use(middleware.Cors())
}

func (handler *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "splitsHandler.add")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var split Split
	if err := json.NewDecoder(r.Body).Decode(&split); err != nil {
		log.Errorf("add split, unmarshal json params: %s", err)
		http.Error(w, "add split failed", http.StatusBadRequest)
		return
	}

	split.UserID = userID
	if err := split.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	added, err := handler.repo.Add(ctx, split)
	if err != nil {
		log.Errorf("failed to add split for user %d: %s", userID, err)
		http.Error(w, "add split failed", http.StatusInternalServerError)
		return
	}

	span.SetAttributes(attribute.Int("split.id", added.ID))

	addedJson, err := json.Marshal(added)
	if err != nil {
		log.Errorf("marshal added split: %s", err)
		http.Error(w, "marshal split error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "splitsHandler.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	userSplits, err := handler.repo.ListForUser(ctx, userID)
	if err != nil {
		log.Errorf("failed to list splits for user %d: %s", userID, err)
		http.Error(w, "list splits failed", http.StatusInternalServerError)
		return
	}

	splitsJson, err := json.Marshal(userSplits)
	if err != nil {
		log.Errorf("marshal splits: %s", err)
		http.Error(w, "marshal splits error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, splitsJson)
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "splitsHandler.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "error, split ID NaN", http.StatusBadRequest)
		return
	}

	split, err := handler.repo.Get(ctx, id, userID)
	if err != nil {
		if errors.Is(err, ErrSplitNotFound) {
			http.Error(w, "split not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get split %d: %s", id, err)
		http.Error(w, "get split failed", http.StatusInternalServerError)
		return
	}

	splitJson, err := json.Marshal(split)
	if err != nil {
		log.Errorf("marshal split %d: %s", id, err)
		http.Error(w, "marshal split error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, splitJson)
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "splitsHandler.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "error, split ID NaN", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, ErrSplitNotFound) {
			http.Error(w, "split not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete split %d: %s", id, err)
		http.Error(w, "delete split failed", http.StatusInternalServerError)
		return
	}

	log.Debugf("split %d deleted by user %d", id, userID)
	pkg.WriteTextResponseOK(w, "deleted")
}
