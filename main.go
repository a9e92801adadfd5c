package main

import (
	"context"
	"os"
	"time"

	"github.com/example/todo-demo/config"
	"github.com/example/todo-demo/internal/logging"
	"github.com/example/todo-demo/modules/activity"
	"github.com/example/todo-demo/modules/api"
	"github.com/example/todo-demo/modules/todo"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load(os.Getenv("TODO_CONFIG"))
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.WithError(err).Fatal("Failed to create logger")
	}
	logger.Info("=== Todo Demo - Fiber + EventBus + SQLite/KV storage ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		logger.WithError(err).Error("Failed to create application")
		os.Exit(1)
	}

	// Create modules
	todoModule := todo.NewModule(cfg.Storage, logger)
	activityModule := activity.NewModule(logger)
	apiModule := api.NewModule(cfg.HTTP, logger)

	// The hub is not exposed via ServiceContainer, so it is handed over here.
	apiModule.SetHub(activityModule.Hub())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - todo: Core domain (ServiceProviderModule + EventEmitterModule)
	// - activity: Event consumer feeding the WebSocket change feed
	// - api: Driving adapter (Fiber HTTP/WebSocket server, depends on todo)
	app.Register(todoModule)
	app.Register(activityModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		logger.WithError(err).Error("Failed to start application")
		os.Exit(1)
	}

	logger.Info("Application started",
		"port", cfg.HTTP.Port,
		"backend", cfg.Storage.Backend,
		"rest", "/api/v1/todos",
		"feed", "/ws")

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				logger.Info("Graceful shutdown initiated")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	logger.Info("Application exited", "code", exitCode)
	os.Exit(exitCode)
}
