package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/smartstudy/smartstudy/internal/cache"
	"github.com/smartstudy/smartstudy/internal/config"
	"github.com/smartstudy/smartstudy/internal/db"
	"github.com/smartstudy/smartstudy/internal/markdown"
	"github.com/smartstudy/smartstudy/internal/middleware"
	"github.com/smartstudy/smartstudy/internal/repository"
	"github.com/smartstudy/smartstudy/internal/service"
	"github.com/smartstudy/smartstudy/internal/storage"
	"go.mongodb.org/mongo-driver/mongo"
)

type App struct {
	Cfg   *config.Config
	DB    *sqlx.DB        // set for sqlite and pgx
	Mongo *mongo.Database // set for mongo
	Redis *redis.Client   // optional

	AuthService       *service.AuthService
	UserService       *service.UserService
	ResourceService   *service.ResourceService
	DiscussionService *service.DiscussionService
	EmailService      *service.EmailService

	AuthLimiter middleware.Limiter
	memLimiter  *middleware.MemoryLimiter
	stop        context.CancelFunc
}

// Repositories groups the persistence backend chosen by DB_DRIVER.
type Repositories struct {
	Users       repository.UserRepository
	Resources   repository.ResourceRepository
	Discussions repository.DiscussionRepository
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Cfg: cfg}

	repos, err := a.openDatabase(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	// Storage
	store, err := newStorage(ctx, cfg)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Redis is optional; without it the feed cache is off and rate limits are per process
	if cfg.RedisURL != "" {
		a.Redis, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("redis unavailable, continuing without cache", "error", err)
			a.Redis = nil
		}
	}

	Wire(a, repos, store)
	return a, nil
}

// Wire builds services and limiters on top of already opened backends.
func Wire(a *App, repos Repositories, store storage.Storage) {
	cfg := a.Cfg
	feedCache := cache.New(a.Redis)

	resourceFiles := storage.NewUploader(store, storage.FolderResources, cfg.S3UploadTimeout)
	avatarFiles := storage.NewUploader(store, storage.FolderAvatars, cfg.S3UploadTimeout)

	a.EmailService = service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.EmailDevMode,
	)
	a.AuthService = service.NewAuthService(repos.Users, a.EmailService, cfg.JWTSecret, cfg.JWTExpiry)
	a.UserService = service.NewUserService(repos.Users, avatarFiles, feedCache)
	a.ResourceService = service.NewResourceService(repos.Resources, repos.Users, resourceFiles, feedCache, cfg.FeedCacheTTL)
	a.DiscussionService = service.NewDiscussionService(repos.Discussions, repos.Users, markdown.NewParser(), feedCache, cfg.FeedCacheTTL)

	if a.Redis != nil {
		a.AuthLimiter = middleware.NewRedisLimiter(a.Redis, "auth", cfg.RateLimitAuth, cfg.RateLimitWindow)
	} else {
		a.memLimiter = middleware.NewMemoryLimiter(cfg.RateLimitAuth, cfg.RateLimitWindow)
		a.AuthLimiter = a.memLimiter
	}
}

func (a *App) openDatabase(ctx context.Context) (Repositories, error) {
	cfg := a.Cfg

	if cfg.UsesMongo() {
		mdb, err := db.InitMongo(ctx, cfg.DBConnection, cfg.MongoDatabase)
		if err != nil {
			return Repositories{}, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.Mongo = mdb
		return MongoRepositories(mdb), nil
	}

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return Repositories{}, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.DB = database

	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return Repositories{}, fmt.Errorf("failed to run migrations: %w", err)
	}
	return SQLRepositories(database), nil
}

func SQLRepositories(database *sqlx.DB) Repositories {
	return Repositories{
		Users:       repository.NewUserRepository(database),
		Resources:   repository.NewResourceRepository(database),
		Discussions: repository.NewDiscussionRepository(database),
	}
}

func MongoRepositories(mdb *mongo.Database) Repositories {
	return Repositories{
		Users:       repository.NewMongoUserRepository(mdb),
		Resources:   repository.NewMongoResourceRepository(mdb),
		Discussions: repository.NewMongoDiscussionRepository(mdb),
	}
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.StorageDriver == "memory" {
		slog.Warn("using in-memory file storage; uploads are lost on restart")
		return storage.NewMemoryStorage(cfg.AppURL + "/files"), nil
	}
	return storage.New(ctx, cfg)
}

// Start runs background maintenance until ctx is done or Close is called.
func (a *App) Start(ctx context.Context) {
	ctx, a.stop = context.WithCancel(ctx)
	if a.memLimiter != nil {
		go a.memLimiter.Run(ctx, 5*time.Minute)
	}
}

// Ping checks the active database.
func (a *App) Ping(ctx context.Context) error {
	switch {
	case a.DB != nil:
		return db.Ping(ctx, a.DB)
	case a.Mongo != nil:
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return a.Mongo.Client().Ping(ctx, nil)
	default:
		return errors.New("no database configured")
	}
}

func (a *App) Close(ctx context.Context) error {
	if a.stop != nil {
		a.stop()
	}

	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.Mongo != nil {
		errs = append(errs, db.CloseMongo(ctx, a.Mongo))
	}
	return errors.Join(errs...)
}
