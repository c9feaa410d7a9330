package backend

import (
	"context"
	"fmt"
	"log/slog"

	"rette/internal/amqp"
	"rette/internal/services"
	"rette/internal/storage"
	"rette/internal/store"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSnapshotRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// Load never fails: keys that are missing or malformed fall back to seed.
	seed := storage.LoadSeed(config.SeedDataDir)
	collections := repo.Load(ctx, seed)
	st := store.NewFromCollections(collections)

	// Initialize AMQP client (optional)
	var publisher services.EventPublisher
	if config.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			publisher = amqpClient
		}
	}

	service := services.NewPaymentService(st, repo, publisher)

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"study_plans", len(collections.StudyPlans),
		"students", len(collections.Students),
		"payments", len(collections.Payments),
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		Service: service,
		Store:   st,
		Cleanup: service.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	seedDir := config.SeedDataDir
	if seedDir == "" {
		seedDir = "data" // Default directory
	}

	seed := storage.LoadSeed(seedDir)
	st := store.NewFromCollections(seed)
	service := services.NewPaymentService(st, nil, nil)

	f.logger.Info("Initialized memory backend",
		"seed_directory", seedDir,
		"study_plans", len(seed.StudyPlans),
		"students", len(seed.Students),
		"payments", len(seed.Payments))

	return &BackendResult{
		Service: service,
		Store:   st,
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}
