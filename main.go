package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerniceZTT/consultsim/config"
	"github.com/BerniceZTT/consultsim/controllers"
	"github.com/BerniceZTT/consultsim/middleware"
	"github.com/BerniceZTT/consultsim/repository"
	"github.com/BerniceZTT/consultsim/routes"
	"github.com/BerniceZTT/consultsim/service"
	"github.com/BerniceZTT/consultsim/utils"

	"github.com/gin-gonic/gin"
)

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.StoreDriver == config.DriverMongo {
		s, err := repository.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoTransactions)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := repository.OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func loadParams(cfg *config.Config) (*config.SimulationParams, error) {
	if cfg.ParamsFile == "" {
		return config.DefaultParams()
	}
	return config.LoadParams(cfg.ParamsFile)
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	utils.InitLogger(cfg.Debug())
	utils.InitAuth(cfg.JWTKey)

	if cfg.Debug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	params, err := loadParams(cfg)
	if err != nil {
		utils.Logger.Fatal().Err(err).Msg("load simulation parameters")
	}
	if err := params.Validate(); err != nil {
		utils.Logger.Fatal().Err(err).Msg("invalid simulation parameters")
	}

	openCtx, cancelOpen := context.WithTimeout(context.Background(), time.Minute)
	var store repository.Store
	err = utils.Retry(openCtx, 5, 2*time.Second, repository.IsTransientError, func() error {
		var openErr error
		store, openErr = openStore(openCtx, cfg)
		return openErr
	})
	cancelOpen()
	if err != nil {
		utils.Logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("open store")
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			utils.Logger.Error().Err(err).Msg("close store")
		}
	}()

	runner := service.NewRunner(store, params)
	handler := controllers.NewHandler(store, runner, cfg)

	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.OperationLoggerMiddleware())
	routes.RegisterRoutes(router, handler)

	if cfg.GenerateOnStart {
		handler.StartDefaultRun()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		utils.Logger.Info().Int("port", cfg.Port).Str("driver", cfg.StoreDriver).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.Logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.Logger.Error().Err(err).Msg("server shutdown")
	}
	utils.Logger.Info().Msg("server stopped")
}
