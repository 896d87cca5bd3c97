package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/fitrackapp/fitrack/internal/telemetry/metrics"
	"github.com/fitrackapp/fitrack/internal/telemetry/tracing"
	"github.com/fitrackapp/fitrack/pkg"
)

const tokenCookieName = "token"

type Handler struct {
	service        *Service
	metricsManager *metrics.Manager
	cookieSecure   bool
}

func NewHandler(service *Service, metricsManager *metrics.Manager, cookieSecure bool) *Handler {
	return &Handler{
		service:        service,
		metricsManager: metricsManager,
		cookieSecure:   cookieSecure,
	}
}

// SetupRoutes registers the auth endpoints; the caller is expected to
// apply rate limiting middleware on the given subrouter.
func (h *Handler) SetupRoutes(authRouter *mux.Router) {
	authRouter.HandleFunc("/register", h.HandleRegister).Methods("POST", "OPTIONS").Name("register")
	authRouter.HandleFunc("/login", h.HandleLogin).Methods("POST", "OPTIONS").Name("login")
	authRouter.HandleFunc("/logout", h.HandleLogout).Methods("GET", "POST", "OPTIONS").Name("logout")
	authRouter.HandleFunc("/me", h.HandleMe).Methods("GET", "OPTIONS").Name("me")
}

type TokenResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.register")
	defer span.End()

	type registerRequest struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var registerReq registerRequest
	if err := json.NewDecoder(r.Body).Decode(&registerReq); err != nil {
		log.Tracef("register, unmarshal json params: %s", err)
		pkg.WriteAPIError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.Register(ctx, registerReq.Username, registerReq.Email, registerReq.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			pkg.WriteAPIError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrUserExists):
			pkg.WriteAPIError(w, "user with that email or username already exists", http.StatusBadRequest)
		default:
			log.Errorf("register user: %s", err)
			pkg.WriteAPIError(w, "failed to register user", http.StatusInternalServerError)
		}
		return
	}

	token, err := h.service.SignToken(user.ID.Hex())
	if err != nil {
		log.Errorf("register user, sign token: %s", err)
		pkg.WriteAPIError(w, "failed to register user", http.StatusInternalServerError)
		return
	}

	log.Debugf("new user registered: %s", user.Username)
	h.setTokenCookie(w, token)
	pkg.WriteAPIData(w, TokenResponse{Token: token, User: user}, http.StatusCreated)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.login")
	defer span.End()

	type loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var loginReq loginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		log.Tracef("login, unmarshal json params: %s", err)
		pkg.WriteAPIError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, user, err := h.service.Login(ctx, loginReq.Email, loginReq.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			pkg.WriteAPIError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrInvalidCredentials):
			if h.metricsManager != nil {
				h.metricsManager.CounterFailedLogins.Inc()
			}
			reqIp, _ := pkg.ReadUserIP(r)
			log.Tracef("failed login attempt for [%s] from %s", loginReq.Email, reqIp)
			pkg.WriteAPIError(w, "invalid credentials", http.StatusUnauthorized)
		default:
			log.Errorf("login: %s", err)
			pkg.WriteAPIError(w, "login failed", http.StatusInternalServerError)
		}
		return
	}

	log.Tracef("login success for user: %s", user.Username)
	h.setTokenCookie(w, token)
	pkg.WriteAPIData(w, TokenResponse{Token: token, User: user}, http.StatusOK)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.logout")
	defer span.End()

	// tokens are stateless, logout just clears the cookie
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookieSecure,
	})

	pkg.WriteAPIData(w, "logged-out", http.StatusOK)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.me")
	defer span.End()

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		pkg.WriteAPIError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.service.Me(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			pkg.WriteAPIError(w, "user not found", http.StatusNotFound)
			return
		}
		log.Errorf("get user %s: %s", userID, err)
		pkg.WriteAPIError(w, "failed to get user", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIData(w, user, http.StatusOK)
}

func (h *Handler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.service.TokenTTL()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
	})
}
