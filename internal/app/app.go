package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/db"
	"github.com/rentdesk/rentdesk/internal/repository"
	"github.com/rentdesk/rentdesk/internal/service"
	"github.com/rentdesk/rentdesk/internal/storage"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	Blobs           storage.BlobStore
	AuthService     *service.AuthService
	UserService     *service.UserService
	PropertyService *service.PropertyService
	CategoryService *service.CategoryService
	FolderService   *service.FolderService
	FileService     *service.FileService
	Reconciler      *service.Reconciler
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Storage
	blobs, err := storage.New(ctx, cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	return Build(cfg, database, blobs), nil
}

// Build wires repositories and services around an open, migrated database
// and a blob store.
func Build(cfg *config.Config, database *sqlx.DB, blobs storage.BlobStore) *App {
	// Repositories
	userRepository := repository.NewUserRepository(database)
	propertyRepository := repository.NewPropertyRepository(database)
	categoryDetailRepository := repository.NewCategoryDetailRepository(database)
	folderRepository := repository.NewFolderRepository(database)
	fileRepository := repository.NewFileRepository(database)
	blobDeletionRepository := repository.NewBlobDeletionRepository(database)

	// Services
	authService := service.NewAuthService(userRepository, propertyRepository, cfg.JWTSecret, cfg.JWTExpiry)
	purger := service.NewBlobPurger(blobs, blobDeletionRepository)

	return &App{
		Cfg:             cfg,
		DB:              database,
		Blobs:           blobs,
		AuthService:     authService,
		UserService:     service.NewUserService(userRepository),
		PropertyService: service.NewPropertyService(authService, propertyRepository),
		CategoryService: service.NewCategoryService(database, authService, propertyRepository, categoryDetailRepository),
		FolderService: service.NewFolderService(
			database,
			authService,
			folderRepository,
			fileRepository,
			blobDeletionRepository,
			purger,
		),
		FileService: service.NewFileService(
			database,
			authService,
			fileRepository,
			folderRepository,
			blobDeletionRepository,
			blobs,
			purger,
		),
		Reconciler: service.NewReconciler(
			blobDeletionRepository,
			blobs,
			cfg.ReconcileBatchSize,
			cfg.ReconcileMaxAttempts,
		),
	}
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
