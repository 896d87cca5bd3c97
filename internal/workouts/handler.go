package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/fitrackapp/fitrack/internal/auth"
	"github.com/fitrackapp/fitrack/internal/telemetry/tracing"
	"github.com/fitrackapp/fitrack/pkg"
)

type workoutsService interface {
	AddExerciseStats(ctx context.Context, userID string, req AddStatsRequest) (*WorkoutSession, error)
	UpdateExerciseStats(ctx context.Context, userID, exerciseID string, req UpdateStatsRequest) (*WorkoutSession, error)
	List(ctx context.Context, userID string, from, to *time.Time) ([]WorkoutSession, error)
}

type summaryAnalyzer interface {
	Summary(ctx context.Context, userID string, from, to *time.Time) ([]DaySummary, error)
}

type Handler struct {
	service  workoutsService
	analyzer summaryAnalyzer
}

func NewHandler(service workoutsService, analyzer summaryAnalyzer) *Handler {
	return &Handler{
		service:  service,
		analyzer: analyzer,
	}
}

func (h *Handler) SetupRoutes(workoutsRouter *mux.Router) {
	workoutsRouter.HandleFunc("", h.HandleAdd).Methods("POST", "OPTIONS").Name("add-workout")
	workoutsRouter.HandleFunc("", h.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")
	workoutsRouter.HandleFunc("/summary", h.HandleSummary).Methods("GET", "OPTIONS").Name("workouts-summary")
	workoutsRouter.HandleFunc("/{exerciseId}", h.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-workout")
}

// parseDateParam accepts RFC3339 timestamps and plain
// 2006-01-02 dates.
func parseDateParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid date value: %s", value)
	}
	return &t, nil
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.add")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteAPIError(w, "not authorized to access this route", http.StatusUnauthorized)
		return
	}

	var req AddStatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.WriteAPIError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.service.AddExerciseStats(ctx, userID, req)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			pkg.WriteAPIError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("add workout failed: %s", err)
		pkg.WriteAPIError(w, "failed to add workout", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIData(w, session, http.StatusCreated)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteAPIError(w, "not authorized to access this route", http.StatusUnauthorized)
		return
	}

	exerciseID := mux.Vars(r)["exerciseId"]
	if exerciseID == "" {
		pkg.WriteAPIError(w, "exercise id is required", http.StatusBadRequest)
		return
	}

	var req UpdateStatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.WriteAPIError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.service.UpdateExerciseStats(ctx, userID, exerciseID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			pkg.WriteAPIError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrExerciseNotFound):
			pkg.WriteAPIError(w, "exercise not found", http.StatusNotFound)
		default:
			log.Errorf("update workout [%s] failed: %s", exerciseID, err)
			pkg.WriteAPIError(w, "failed to update workout", http.StatusInternalServerError)
		}
		return
	}

	pkg.WriteAPIData(w, session, http.StatusOK)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteAPIError(w, "not authorized to access this route", http.StatusUnauthorized)
		return
	}

	from, err := parseDateParam(r.URL.Query().Get("startDate"))
	if err != nil {
		pkg.WriteAPIError(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := parseDateParam(r.URL.Query().Get("endDate"))
	if err != nil {
		pkg.WriteAPIError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sessions, err := h.service.List(ctx, userID, from, to)
	if err != nil {
		log.Errorf("list workouts failed: %s", err)
		pkg.WriteAPIError(w, "failed to list workouts", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []WorkoutSession{}
	}

	pkg.WriteAPIData(w, sessions, http.StatusOK)
}

func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "workoutsHandler.summary")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteAPIError(w, "not authorized to access this route", http.StatusUnauthorized)
		return
	}

	from, err := parseDateParam(r.URL.Query().Get("startDate"))
	if err != nil {
		pkg.WriteAPIError(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := parseDateParam(r.URL.Query().Get("endDate"))
	if err != nil {
		pkg.WriteAPIError(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.analyzer.Summary(ctx, userID, from, to)
	if err != nil {
		log.Errorf("workouts summary failed: %s", err)
		pkg.WriteAPIError(w, "failed to build workouts summary", http.StatusInternalServerError)
		return
	}
	if report == nil {
		report = []DaySummary{}
	}

	pkg.WriteAPIData(w, report, http.StatusOK)
}
