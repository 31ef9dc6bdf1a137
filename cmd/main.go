package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"contribflow/internal/auth"
	"contribflow/internal/config"
	"contribflow/internal/handler"
	"contribflow/internal/logger"
	"contribflow/internal/repository"
	"contribflow/internal/scheduler"
	"contribflow/internal/service"
	"contribflow/internal/service/drive"
	"contribflow/internal/service/s3"
	"contribflow/internal/service/token"
	"contribflow/internal/service/youtube"
)

const driveTokenKey = "contribflow:drive:token"

var log = logger.WithComponent("main")

func connectWithRetry(cfg config.DatabaseConfig, maxAttempts int, delay time.Duration) (*sqlx.DB, error) {
	// Сначала подключаемся к системной базе postgres, она существует всегда
	sys := cfg
	sys.Name = "postgres"
	pgDB, err := sqlx.Connect("postgres", sys.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres database: %w", err)
	}
	defer pgDB.Close()

	var exists bool
	err = pgDB.Get(&exists, "SELECT EXISTS(SELECT datname FROM pg_catalog.pg_database WHERE datname = $1)", cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check database existence: %w", err)
	}

	if !exists {
		log.Infof("database %s does not exist, creating", cfg.Name)
		// имя базы не параметризуется в DDL
		if _, err = pgDB.Exec(fmt.Sprintf("CREATE DATABASE %q", cfg.Name)); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	var db *sqlx.DB
	for i := 0; i < maxAttempts; i++ {
		db, err = sqlx.Connect("postgres", cfg.GetDSN())
		if err == nil {
			return db, nil
		}

		log.WithError(err).Warnf("failed to connect to database (attempt %d/%d)", i+1, maxAttempts)
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", maxAttempts, err)
}

func runMigrations(cfg config.DatabaseConfig) error {
	var m *migrate.Migrate
	var err error

	for i := 0; i < 5; i++ {
		m, err = migrate.New("file://migrations", cfg.GetURL())
		if err == nil {
			break
		}
		log.WithError(err).Warnf("failed to create migrate instance (attempt %d/5)", i+1)
		time.Sleep(time.Second * 5)
	}

	if err != nil {
		return fmt.Errorf("failed to create migrate instance after retries: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if dirty {
		log.Warnf("found dirty database state at version %d, forcing version", version)
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// tokenStore - Redis, если он доступен, иначе память процесса
func tokenStore(cfg config.RedisConfig) (token.Store, func()) {
	if cfg.Addr == "" {
		log.Warn("redis is not configured, drive tokens are kept in memory")
		return token.NewMemoryStore(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis is unavailable, drive tokens are kept in memory")
		_ = client.Close()
		return token.NewMemoryStore(), func() {}
	}

	return token.NewRedisStore(client, driveTokenKey), func() { _ = client.Close() }
}

func main() {
	appConfig, err := config.NewConfig(".app.env")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.Init(appConfig.Log); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	db, err := connectWithRetry(appConfig.Database, 5, time.Second*5)
	if err != nil {
		log.Fatalf("failed to connect to database after retries: %v", err)
	}
	defer db.Close()

	if err := runMigrations(appConfig.Database); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	// OAuth: учётная запись хранилища и аккаунты создателей
	gcfg := appConfig.Google
	driveTokens := token.NewManager(drive.OAuthConfig(gcfg.ClientID, gcfg.ClientSecret, gcfg.DriveRedirectURL))
	youtubeTokens := token.NewManager(youtube.OAuthConfig(gcfg.ClientID, gcfg.ClientSecret, gcfg.YouTubeRedirectURL))

	store, closeStore := tokenStore(appConfig.Redis)
	defer closeStore()
	driveSource := token.NewStoredSource(driveTokens, store, gcfg.RefreshToken)

	driveClient := drive.NewClient(
		drive.NewHTTPClient(driveSource, gcfg.DriveRequestsPerSec),
		gcfg.DriveRootFolderName,
	)
	driveAuth := drive.NewAuthorizer(driveTokens, driveSource)

	// S3 необязателен: без ключей маршруты /s3 не поднимаются
	var s3Handler *handler.S3Handler
	if s3Config, err := s3.NewConfig(appConfig.S3); err != nil {
		log.WithError(err).Warn("s3 storage is disabled")
	} else {
		s3Client, err := s3.NewClient(s3Config)
		if err != nil {
			log.Fatalf("failed to create S3 client: %v", err)
		}
		s3Handler = handler.NewS3Handler(s3Client)
	}

	// Репозитории
	mediaRepo := repository.NewMediaRepository(db)
	folderRepo := repository.NewFolderRepository(db)
	contributionRepo := repository.NewContributionRepository(db)
	creatorRepo := repository.NewCreatorRepository(db)
	mapRepo := repository.NewMapRepository(db)

	// Сервисы
	publisher := youtube.NewPublisher(creatorRepo, driveClient, youtubeTokens)
	connector := youtube.NewConnector(creatorRepo, youtubeTokens)

	mediaService := service.NewMediaService(mediaRepo, folderRepo, driveClient)
	folderService := service.NewFolderService(folderRepo, driveClient)
	contributionService := service.NewContributionService(contributionRepo, mediaService, creatorRepo, publisher, service.NewFFProbe())
	creatorService := service.NewCreatorService(creatorRepo)
	creatorEditorMaps := service.NewCreatorEditorMapService(mapRepo)
	accountEditorMaps := service.NewAccountEditorMapService(mapRepo, creatorRepo)

	// Аутентификация и ограничение частоты
	sessions := auth.NewSessionClient(appConfig.Auth.ValidationURL, nil)
	limiter := auth.NewIPRateLimiter(appConfig.Auth.RateLimit, appConfig.Auth.RateBurst)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go limiter.Run(ctx)

	router := handler.NewRouter(handler.Handlers{
		Contributions: handler.NewContributionHandler(contributionService),
		Folders:       handler.NewFolderHandler(folderService),
		Media:         handler.NewMediaHandler(mediaService),
		Drive:         handler.NewDriveHandler(driveClient, driveAuth),
		S3:            s3Handler,
		YouTube:       handler.NewYouTubeHandler(connector, creatorService),
		Maps:          handler.NewMapHandler(creatorEditorMaps, accountEditorMaps),
		Health:        handler.NewHealthHandler(db),
	}, handler.RouterOptions{
		Auth:           auth.Middleware(sessions),
		RateLimit:      limiter.Middleware,
		MaxUploadBytes: appConfig.Server.MaxUploadBytes,
		RequestTimeout: appConfig.Server.RequestTimeout,
	})

	// Плановые задачи
	cronScheduler := scheduler.New()
	if err := cronScheduler.Register(gcfg.TokenRefreshSchedule, scheduler.NewTokenRefreshJob(driveSource)); err != nil {
		log.Fatalf("failed to schedule token refresh: %v", err)
	}
	cronScheduler.Start()

	// gRPC: только стандартный health-сервис
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", appConfig.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%s", appConfig.Server.GRPCPort))
		if err != nil {
			log.Fatalf("failed to listen for gRPC: %v", err)
		}
		log.Infof("starting gRPC server on port %s", appConfig.Server.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("failed to serve gRPC: %v", err)
		}
	}()

	go func() {
		log.Infof("starting HTTP server on port %s", appConfig.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start HTTP server: %v", err)
		}
	}()

	<-quit
	log.Info("shutting down servers")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server forced to shutdown")
	}

	grpcServer.GracefulStop()
	cronScheduler.Stop()
	stop()

	if err := db.Close(); err != nil {
		log.WithError(err).Error("error closing database connection")
	}

	log.Info("server exited properly")
}
