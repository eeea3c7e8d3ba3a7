package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/phrazzld/todo-api/internal/api/middleware"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/platform/dynamo"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/platform/objectstore"
	"github.com/phrazzld/todo-api/internal/platform/postgres"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/service/auth"
	"github.com/phrazzld/todo-api/internal/store"
)

// application holds the shared dependencies of the API and ensures proper
// cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is set only for the postgres store
	db *sql.DB

	taskStore   store.TaskStore
	taskService service.TaskService

	// verifier is nil behind API Gateway, where the authorizer function has
	// already verified the token.
	verifier middleware.TokenVerifier
}

// initializeApp loads configuration, sets up logging and builds the application.
func initializeApp(ctx context.Context, inLambda bool) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("region", cfg.AWS.Region),
		slog.Bool("lambda", inLambda))

	return newApplication(ctx, cfg, log, inLambda)
}

// newApplication creates the application with all dependencies initialized.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger, inLambda bool) (*application, error) {
	app := &application{
		config: cfg,
		logger: log,
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	app.taskStore, err = app.newTaskStore(ctx, awsCfg)
	if err != nil {
		return nil, err
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.AWS.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
			o.UsePathStyle = true
		}
	})
	bucket := objectstore.NewS3Bucket(
		s3Client,
		cfg.Attachments.BucketName,
		cfg.AWS.Region,
		cfg.Attachments.URLExpiration(),
		log,
	)

	app.taskService, err = service.NewTaskService(app.taskStore, bucket, service.TaskServiceOptions{
		RequireExistingTask: cfg.Attachments.RequireExistingTask,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	if !inLambda {
		app.verifier = newVerifier(cfg.Auth)
		log.Info("verifying tokens locally", slog.String("jwks_url", cfg.Auth.JWKSURL))
	}

	log.Info("application initialized successfully")
	return app, nil
}

// newTaskStore builds the store selected by store.driver.
func (app *application) newTaskStore(ctx context.Context, awsCfg aws.Config) (store.TaskStore, error) {
	cfg := app.config

	switch cfg.Store.Driver {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db, app.logger); err != nil {
			_ = db.Close()
			return nil, err
		}
		app.db = db
		app.logger.Info("using postgres task store")
		return postgres.NewPostgresTaskStore(db, app.logger), nil

	default:
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.AWS.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
			}
		})
		app.logger.Info("using dynamodb task store", slog.String("table", cfg.Store.TableName))
		return dynamo.NewTaskStore(client, cfg.Store.TableName, app.logger), nil
	}
}

// newVerifier builds the token verifier from the auth settings.
func newVerifier(cfg config.AuthConfig) *auth.Verifier {
	client := &http.Client{Timeout: cfg.FetchTimeout()}
	return auth.NewVerifier(
		auth.NewJWKSResolver(cfg.JWKSURL, client),
		auth.WithIssuer(cfg.Issuer),
		auth.WithAudience(cfg.Audience),
		auth.WithLeeway(cfg.Leeway()),
	)
}

// Run serves HTTP until ctx is canceled.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
	app.logger.Info("application shutdown completed")
}
