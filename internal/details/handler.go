package details

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/fitrackapp/fitrack/internal/auth"
	"github.com/fitrackapp/fitrack/internal/telemetry/tracing"
	"github.com/fitrackapp/fitrack/pkg"
)

type detailsRepo interface {
	GetForUser(ctx context.Context, userID string) (*Detail, error)
	Upsert(ctx context.Context, detail Detail, now time.Time) (*Detail, error)
}

type Handler struct {
	repo detailsRepo

	// injectable for deterministic tests
	NowFunc func() time.Time
}

func NewHandler(repo detailsRepo) *Handler {
	return &Handler{
		repo:    repo,
		NowFunc: time.Now,
	}
}

func (h *Handler) SetupRoutes(detailsRouter *mux.Router) {
	detailsRouter.HandleFunc("/me", h.HandleGetMe).Methods("GET", "OPTIONS").Name("get-details")
	detailsRouter.HandleFunc("/update", h.HandleUpsert).Methods("PUT", "OPTIONS").Name("update-details")
}

type upsertDetailsRequest struct {
	Weight        float64 `json:"weight"`
	Bicep         float64 `json:"bicep"`
	Chest         float64 `json:"chest"`
	Thigh         float64 `json:"thigh"`
	Waist         float64 `json:"waist"`
	Belly         float64 `json:"belly"`
	Height        float64 `json:"height"`
	Age           int     `json:"age"`
	Gender        string  `json:"gender"`
	Goal          string  `json:"goal"`
	ActivityLevel string  `json:"activityLevel"`
}

func (h *Handler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "detailsHandler.getMe")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteAPIError(w, "not authorized to access this route", http.StatusUnauthorized)
		return
	}

	detail, err := h.repo.GetForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrDetailsNotFound) {
			pkg.WriteAPIError(w, "user details not found", http.StatusNotFound)
			return
		}
		log.Errorf("get user details failed: %s", err)
		pkg.WriteAPIError(w, "failed to get user details", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIData(w, detail, http.StatusOK)
}

func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "detailsHandler.upsert")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteAPIError(w, "not authorized to access this route", http.StatusUnauthorized)
		return
	}

	var req upsertDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.WriteAPIError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Weight <= 0 || req.Height <= 0 || req.Age <= 0 {
		pkg.WriteAPIError(w, "weight, height and age are required", http.StatusBadRequest)
		return
	}

	detail := Detail{
		UserID:        userID,
		Weight:        req.Weight,
		Bicep:         req.Bicep,
		Chest:         req.Chest,
		Thigh:         req.Thigh,
		Waist:         req.Waist,
		Belly:         req.Belly,
		Height:        req.Height,
		Age:           req.Age,
		Gender:        req.Gender,
		Goal:          req.Goal,
		ActivityLevel: req.ActivityLevel,
	}

	stored, err := h.repo.Upsert(ctx, detail, h.NowFunc())
	if err != nil {
		log.Errorf("upsert user details failed: %s", err)
		pkg.WriteAPIError(w, "failed to update user details", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIData(w, stored, http.StatusOK)
}
