package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/matchengine/internal/config"
	"github.com/ivankudzin/tgapp/matchengine/internal/jobs/cleanup"
	pgrepo "github.com/ivankudzin/tgapp/matchengine/internal/repo/postgres"
	redrepo "github.com/ivankudzin/tgapp/matchengine/internal/repo/redis"
	authsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/auth"
	conversationsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/conversations"
	directorysvc "github.com/ivankudzin/tgapp/matchengine/internal/services/directory"
	inboxsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/inbox"
	matchessvc "github.com/ivankudzin/tgapp/matchengine/internal/services/matches"
	notificationsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/notifications"
	ratesvc "github.com/ivankudzin/tgapp/matchengine/internal/services/rate"
	swipesvc "github.com/ivankudzin/tgapp/matchengine/internal/services/swipes"
	"github.com/ivankudzin/tgapp/matchengine/internal/transport/http/handlers"
)

const floodGuardSweepInterval = 5 * time.Minute

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	floodGuard *ratesvc.LimiterStore
	httpRouter http.Handler

	cleanupJob  *cleanup.Job
	stopCleanup context.CancelFunc
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log, cfg.HTTP.CORSOrigins)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}
	if pool != nil && cfg.Postgres.AutoMigrate {
		if err := pgrepo.Migrate(ctx, pool); err != nil {
			log.Warn("postgres auto migrate failed", zap.Error(err))
		} else {
			log.Info("postgres schema applied")
		}
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	rateRepo := redrepo.NewRateRepo(redisClient)
	cacheRepo := redrepo.NewCacheRepo(redisClient)

	transactor := pgrepo.NewTransactor(pool)
	swipeRepo := pgrepo.NewSwipeRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	messageRepo := pgrepo.NewMessageRepo(pool)
	notificationRepo := pgrepo.NewNotificationRepo(pool)
	profileRepo := pgrepo.NewProfileRepo(pool)

	engine := cfg.Engine
	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL).
		RequireIssuer(cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	directory := directorysvc.NewService(directorysvc.Dependencies{
		Profiles: profileRepo,
		Cache:    cacheRepo,
		Logger:   log,
	}, directorysvc.Config{CacheTTL: engine.DirectoryCacheTTL})
	fanout := notificationsvc.NewFanout(notificationsvc.FanoutDependencies{
		Store:   notificationRepo,
		Matches: matchRepo,
		Logger:  log,
	}, engine.SnippetRunes)
	floodGuard := ratesvc.NewLimiterStore(engine.MessagesPerMinute, engine.MessageBurst, floodGuardSweepInterval)

	swipeService := swipesvc.NewService(swipesvc.Dependencies{
		Tx:          transactor,
		SwipeStore:  swipeRepo,
		MatchStore:  matchRepo,
		Notifier:    fanout,
		Directory:   directory,
		RateLimiter: ratesvc.NewLimiter(rateRepo, engine.LikesPerMinute, engine.LikesPer10Sec),
		Logger:      log,
	})
	conversationService := conversationsvc.NewService(conversationsvc.Dependencies{
		Tx:         transactor,
		Matches:    matchRepo,
		Messages:   messageRepo,
		Notifier:   fanout,
		Directory:  directory,
		FloodGuard: floodGuard,
	}, conversationsvc.Config{
		MaxContentRunes: engine.MaxMessageRunes,
		DefaultLimit:    engine.MessagesLimit,
	})
	notificationService := notificationsvc.NewService(notificationsvc.Dependencies{
		Tx:    transactor,
		Store: notificationRepo,
	}, notificationsvc.Config{DefaultLimit: engine.NotificationsLimit})
	inboxService := inboxsvc.NewService(inboxsvc.Dependencies{
		Swipes:    swipeRepo,
		Matches:   matchRepo,
		Messages:  messageRepo,
		Directory: directory,
	}, inboxsvc.Config{DiscoverLimit: engine.DiscoverLimit})
	matchService := matchessvc.NewService(matchessvc.Dependencies{
		Tx:         transactor,
		MatchStore: matchRepo,
		Logger:     log,
	})

	RegisterRoutes(r, Dependencies{
		Tokens:              jwtManager,
		SwipeService:        swipeService,
		InboxService:        inboxService,
		MatchService:        matchService,
		ConversationService: conversationService,
		NotificationService: notificationService,
		HealthChecks: map[string]handlers.Pinger{
			"postgres": func(ctx context.Context) error { return pgrepo.Ping(ctx, pool) },
			"redis":    func(ctx context.Context) error { return redrepo.Ping(ctx, redisClient) },
		},
		Logger: log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	app := &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		floodGuard: floodGuard,
		httpRouter: r,
	}
	if pool != nil && engine.NotificationRetention > 0 {
		app.cleanupJob = cleanup.NewNotificationCleanupJob(notificationRepo, engine.NotificationRetention, log)
	}

	return app, nil
}

func (a *App) Run() error {
	if a.cleanupJob != nil {
		ctx, cancel := context.WithCancel(context.Background())
		a.stopCleanup = cancel
		go a.cleanupJob.Loop(ctx, a.cfg.Engine.CleanupInterval)
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
	if a.stopCleanup != nil {
		a.stopCleanup()
	}
	if a.floodGuard != nil {
		a.floodGuard.Stop()
	}
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
