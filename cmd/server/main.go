package main

import (
	"context"
	"fmt"
	"net/http"

	"ptcg-tracker/internal/config"
	"ptcg-tracker/internal/constants"
	"ptcg-tracker/internal/database"
	fxmodules "ptcg-tracker/internal/fx"
	"ptcg-tracker/internal/middleware"
	"ptcg-tracker/internal/server"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	trackerServer *server.TrackerServer,
	cfg *config.Config,
	client *mongo.Client,
	db *mongo.Database,
	logger zerolog.Logger,
) {
	mux := http.NewServeMux()
	trackerServer.Routes(mux)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	handler := middleware.RequestID(logger)(c.Handler(mux))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: handler,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := database.EnsureIndexes(ctx, db, logger); err != nil {
				return err
			}
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}

			if err := client.Disconnect(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("error closing mongodb connection")
			}

			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
