package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"sbom-proof-service/handlers"
	"sbom-proof-service/logger"
	"sbom-proof-service/metrics"
	"sbom-proof-service/service"
)

func main() {
	config := LoadConfig()
	log := logger.Logger()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	storage, err := service.NewStorage(config.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer storage.Close()

	svc := service.NewSMTService(storage)
	h := handlers.NewHandler(svc)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/smt/:root", h.GetSMT)
	router.POST("/build", h.Build)
	router.POST("/store-smt", h.StoreSMT)
	router.POST("/prove-batch", h.ProveBatch)
	router.POST("/verify-batch", h.VerifyBatch)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Port),
		Handler: router,
	}

	go func() {
		log.Info().Int("port", config.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("bye")
}
