package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/fitrackapp/fitrack/internal/auth"
	"github.com/fitrackapp/fitrack/internal/config"
	"github.com/fitrackapp/fitrack/internal/db"
	"github.com/fitrackapp/fitrack/internal/details"
	"github.com/fitrackapp/fitrack/internal/meals"
	"github.com/fitrackapp/fitrack/internal/middleware"
	"github.com/fitrackapp/fitrack/internal/telemetry/metrics"
	"github.com/fitrackapp/fitrack/internal/telemetry/tracing"
	"github.com/fitrackapp/fitrack/internal/workouts"
	"github.com/fitrackapp/fitrack/pkg"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	mongoClient *mongo.Client
	mongoDB     *mongo.Database

	redisClient *redis.Client
	authService *auth.Service

	usersRepo    *auth.Repo
	workoutsRepo *workouts.Repo
	mealsRepo    *meals.Repo
	detailsRepo  *details.Repo

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	JWTSecret               string
	RedisPassword           string
	VersionInfo             string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	mongoClient, err := db.Connect(ctx, db.ConnectParams{
		URI:            params.Config.MongoURI,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := mongoClient.Ping(ctx, nil); err != nil {
		log.Warnf("failed to ping mongo: %s", err)
	}

	mongoDB := mongoClient.Database(params.Config.MongoDBName)

	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("fitrack", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	usersRepo := auth.NewRepo(mongoDB)
	workoutsRepo := workouts.NewRepo(mongoDB)
	mealsRepo := meals.NewRepo(mongoDB)
	detailsRepo := details.NewRepo(mongoDB)

	for name, ensure := range map[string]func(context.Context) error{
		"users":    usersRepo.EnsureIndexes,
		"workouts": workoutsRepo.EnsureIndexes,
		"meals":    mealsRepo.EnsureIndexes,
		"details":  detailsRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Warnf("failed to ensure %s indexes: %s", name, err)
		}
	}

	tokenTTL := auth.DefaultTokenTTL
	if params.Config.TokenTTLDays > 0 {
		tokenTTL = time.Duration(params.Config.TokenTTLDays) * 24 * time.Hour
	}
	authService := auth.NewService(usersRepo, params.JWTSecret, tokenTTL)

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "fitrack-backend")
	if err != nil {
		return nil, err
	}

	return &Server{
		config:      params.Config,
		versionInfo: params.VersionInfo,
		mongoClient: mongoClient,
		mongoDB:     mongoDB,

		redisClient: rdb,
		authService: authService,

		usersRepo:    usersRepo,
		workoutsRepo: workoutsRepo,
		mealsRepo:    mealsRepo,
		detailsRepo:  detailsRepo,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	apiRouter := r.PathPrefix("/api/v1").Subrouter()

	authRouter := apiRouter.PathPrefix("/auth").Subrouter()
	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	authRouter.Use(middleware.RateLimit(
		reqRateLimiter,
		"auth-router",
		s.config.LoginRateLimitAllowedPerMin,
		s.metricsManager,
	))
	authHandler := auth.NewHandler(s.authService, s.metricsManager, s.config.Environment == "production")
	authHandler.SetupRoutes(authRouter)

	workoutsService := workouts.NewService(s.workoutsRepo, s.metricsManager)
	workoutsHandler := workouts.NewHandler(workoutsService, workouts.NewAnalyzer(s.workoutsRepo))
	workoutsHandler.SetupRoutes(apiRouter.PathPrefix("/workouts").Subrouter())

	mealsHandler := meals.NewHandler(s.mealsRepo, s.metricsManager)
	mealsHandler.SetupRoutes(apiRouter.PathPrefix("/meals").Subrouter())

	detailsHandler := details.NewHandler(s.detailsRepo)
	detailsHandler.SetupRoutes(apiRouter.PathPrefix("/details").Subrouter())

	apiRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.mongoClient.Ping(ctx, nil); err != nil {
			pkg.WriteAPIError(w, "db unreachable", http.StatusServiceUnavailable)
			return
		}
		pkg.WriteTextResponseOK(w, "ok")
	}).Methods("GET", "OPTIONS").Name("health")

	r.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteTextResponseOK(w, s.versionInfo)
	}).Methods("GET").Name("version")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.authService)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) Serve(_ context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.mongoClient != nil {
		log.Debugln("disconnecting mongo client ...")
		if err := s.mongoClient.Disconnect(ctx); err != nil {
			log.Errorf("failed to disconnect mongo client: %s", err)
		}
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
