package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/genemasaka/kenyan-connections-circle/internal/config"
	s3infra "github.com/genemasaka/kenyan-connections-circle/internal/infra/s3"
	"github.com/genemasaka/kenyan-connections-circle/internal/jobs/cleanup"
	"github.com/genemasaka/kenyan-connections-circle/internal/realtime"
	pgrepo "github.com/genemasaka/kenyan-connections-circle/internal/repo/postgres"
	redrepo "github.com/genemasaka/kenyan-connections-circle/internal/repo/redis"
	authsvc "github.com/genemasaka/kenyan-connections-circle/internal/services/auth"
	blockingsvc "github.com/genemasaka/kenyan-connections-circle/internal/services/blocking"
	matchingsvc "github.com/genemasaka/kenyan-connections-circle/internal/services/matching"
	mediasvc "github.com/genemasaka/kenyan-connections-circle/internal/services/media"
	messagingsvc "github.com/genemasaka/kenyan-connections-circle/internal/services/messaging"
	profilessvc "github.com/genemasaka/kenyan-connections-circle/internal/services/profiles"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	hub        *realtime.Hub
	bridge     *realtime.Bridge
	cleanupJob *cleanup.Job
	jobsStop   context.CancelFunc
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	sessionRepo := redrepo.NewSessionRepo(redisClient)
	resetRepo := redrepo.NewResetRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)
	userRepo := pgrepo.NewUserRepo(pool)
	profileRepo := pgrepo.NewProfileRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	messageRepo := pgrepo.NewMessageRepo(pool)
	blockRepo := pgrepo.NewBlockRepo(pool)
	reportRepo := pgrepo.NewReportRepo(pool)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	hub := realtime.NewHub(log)
	publisher := realtime.NewPublisher(redisClient)
	bridge := realtime.NewBridge(redisClient, hub, log)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(authsvc.Dependencies{
		JWT:      jwtManager,
		Users:    userRepo,
		Profiles: profileRepo,
		Sessions: sessionRepo,
		Resets:   resetRepo,
	}, authsvc.Config{
		RefreshTTL: cfg.Auth.RefreshTTL,
		ResetTTL:   cfg.Auth.ResetTTL,
		DemoMode:   cfg.Auth.DemoMode,
		DemoEmail:  cfg.Auth.DemoEmail,
	})

	profileService := profilessvc.NewService(profileRepo)

	matchingService := matchingsvc.NewService(matchingsvc.Dependencies{
		Matches:  matchRepo,
		Profiles: profileRepo,
		Blocks:   blockRepo,
	}, matchingsvc.Config{
		SuggestionsLimit: cfg.Limits.SuggestionsLimit,
	})

	messagingService := messagingsvc.NewService(messagingsvc.Dependencies{
		Messages:  messageRepo,
		Matches:   matchRepo,
		Blocks:    blockRepo,
		Profiles:  profileRepo,
		Publisher: publisher,
		Logger:    log,
	}, messagingsvc.Config{
		MaxContentLen: cfg.Messaging.MaxContentLen,
	})

	blockingService := blockingsvc.NewService(blockingsvc.Dependencies{
		Blocks:   blockRepo,
		Reports:  reportRepo,
		Profiles: profileRepo,
		Rate:     rateRepo,
	}, blockingsvc.Config{
		ReportsPerWindow: cfg.Limits.ReportsPer10Min,
	})

	var mediaService *mediasvc.Service
	if s3Client != nil {
		mediaService = mediasvc.NewService(s3Client, profileRepo, mediasvc.Config{
			Bucket:   cfg.S3.Bucket,
			Endpoint: cfg.S3.Endpoint,
			UseSSL:   cfg.S3.UseSSL,
		})
	}

	RegisterRoutes(r, Dependencies{
		AuthService:      authService,
		ProfileService:   profileService,
		MatchingService:  matchingService,
		MessagingService: messagingService,
		BlockingService:  blockingService,
		MediaService:     mediaService,
		Hub:              hub,
		Logger:           log,
		Config:           cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	var cleanupJob *cleanup.Job
	if pool != nil {
		cleanupJob = cleanup.New(matchRepo, reportRepo, log)
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		hub:        hub,
		bridge:     bridge,
		cleanupJob: cleanupJob,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	jobsCtx, cancel := context.WithCancel(context.Background())
	a.jobsStop = cancel
	go func() {
		if err := a.bridge.Run(jobsCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("realtime bridge stopped", zap.Error(err))
		}
	}()
	if a.cleanupJob != nil {
		go a.cleanupJob.Start(jobsCtx, a.cfg.Jobs.CleanupInterval)
	}

	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.jobsStop != nil {
		a.jobsStop()
	}
	a.hub.Close()
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
