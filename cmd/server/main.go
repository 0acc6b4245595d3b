package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lekbanken/gamedesk/modules/games/infrastructure/persistence"
	"github.com/lekbanken/gamedesk/modules/games/presentation/controllers"
	"github.com/lekbanken/gamedesk/modules/games/services"
	"github.com/lekbanken/gamedesk/pkg/configuration"
	"github.com/lekbanken/gamedesk/pkg/httpapi"
	"github.com/lekbanken/gamedesk/pkg/metrics"
	"github.com/lekbanken/gamedesk/pkg/middleware"
	"github.com/lekbanken/gamedesk/pkg/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	repo := persistence.NewGameContentRepository()
	imports := services.NewImportService(repo, logger).
		WithMaxBatchSize(conf.Import.MaxBatchSize).
		WithTenantScopedKeys(conf.Import.TenantScopedKeys)
	exports := services.NewExportService(repo, logger)

	registered := []server.Controller{
		controllers.NewGamesAPIController(imports, exports, logger, conf.Import.MaxUploadSize),
	}
	if conf.Prometheus.Enabled {
		registered = append(registered, metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	serverInstance := server.NewHTTPServer(
		registered,
		[]mux.MiddlewareFunc{
			middleware.WithLogger(logger, conf.RequestIDHeader),
			middleware.WithPool(pool),
		},
		notFound(),
		methodNotAllowed(),
	)
	log.Printf("Listening on: %s\n", conf.SocketAddress)
	if err := serverInstance.Start(conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

func notFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
}

func methodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})
}
