package meals

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
	"github.com/fitrackapp/fitrack/internal/telemetry/metrics"
	"github.com/fitrackapp/fitrack/internal/telemetry/tracing"
	"github.com/fitrackapp/fitrack/pkg"
)

type mealsRepo interface {
	ListForUser(ctx context.Context, userID string) ([]Meal, error)
	Upsert(ctx context.Context, meal Meal, now time.Time) (*Meal, error)
	Delete(ctx context.Context, userID string, date time.Time, mealType string) (*Meal, error)
}

type Handler struct {
	repo           mealsRepo
	metricsManager *metrics.Manager

	// injectable for deterministic tests
	NowFunc func() time.Time
}

func NewHandler(repo mealsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		metricsManager: metricsManager,
		NowFunc:        time.Now,
	}
}

func (h *Handler) SetupRoutes(mealsRouter *mux.Router) {
	mealsRouter.HandleFunc("", h.HandleList).Methods("GET", "OPTIONS").Name("list-meals")
	mealsRouter.HandleFunc("/update", h.HandleUpsert).Methods("PUT", "OPTIONS").Name("update-meal")
	mealsRouter.HandleFunc("/delete", h.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-meal")
}

type upsertMealRequest struct {
	Date     time.Time `json:"date"`
	MealType string    `json:"mealType"`
	Items    []string  `json:"items"`
	Calories float64   `json:"calories"`
	Protein  float64   `json:"protein"`
	Notes    string    `json:"notes"`
}

type deleteMealRequest struct {
	Date     time.Time `json:"date"`
	MealType string    `json:"mealType"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "mealsHandler.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteAPIError(w, "not authorized to access this route", http.StatusUnauthorized)
		return
	}

	userMeals, err := h.repo.ListForUser(ctx, userID)
	if err != nil {
		log.Errorf("list meals failed: %s", err)
		pkg.WriteAPIError(w, "failed to list meals", http.StatusInternalServerError)
		return
	}
	if userMeals == nil {
		userMeals = []Meal{}
	}

	pkg.WriteAPIData(w, userMeals, http.StatusOK)
}

func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "mealsHandler.upsert")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteAPIError(w, "not authorized to access this route", http.StatusUnauthorized)
		return
	}

	var req upsertMealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.WriteAPIError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Date.IsZero() {
		pkg.WriteAPIError(w, "meal date is required", http.StatusBadRequest)
		return
	}
	if !IsValidMealType(req.MealType) {
		pkg.WriteAPIError(w, fmt.Sprintf("invalid meal type: %s", req.MealType), http.StatusBadRequest)
		return
	}

	meal := Meal{
		UserID:   userID,
		Date:     req.Date,
		MealType: req.MealType,
		Items:    req.Items,
		Calories: req.Calories,
		Protein:  req.Protein,
		Notes:    req.Notes,
	}
	if meal.Items == nil {
		meal.Items = []string{}
	}

	stored, err := h.repo.Upsert(ctx, meal, h.NowFunc())
	if err != nil {
		log.Errorf("upsert meal failed: %s", err)
		pkg.WriteAPIError(w, "failed to update meal", http.StatusInternalServerError)
		return
	}

	if h.metricsManager != nil {
		h.metricsManager.CounterMealsUpserted.Inc()
	}

	pkg.WriteAPIData(w, stored, http.StatusOK)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "mealsHandler.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteAPIError(w, "not authorized to access this route", http.StatusUnauthorized)
		return
	}

	var req deleteMealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.WriteAPIError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	deleted, err := h.repo.Delete(ctx, userID, req.Date, req.MealType)
	if err != nil {
		if errors.Is(err, ErrMealNotFound) {
			pkg.WriteAPIError(w, "meal not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete meal failed: %s", err)
		pkg.WriteAPIError(w, "failed to delete meal", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIData(w, deleted, http.StatusOK)
}
