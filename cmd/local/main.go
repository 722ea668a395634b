// Command local serves every function over HTTP against real or emulated
// AWS services. Settings come from .env and the environment.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"minicourse-backend/application/services"
	"minicourse-backend/infrastructure/config"
	"minicourse-backend/infrastructure/di"
	"minicourse-backend/interfaces/lambda/handlers"
	"minicourse-backend/interfaces/lambda/pipeline"
	"minicourse-backend/interfaces/local"
)

type settings struct {
	config.Base           `koanf:",squash"`
	di.MinicourseSettings `koanf:",squash"`
	di.CategorySettings   `koanf:",squash"`
	di.VideoSettings      `koanf:",squash"`

	Addr           string `koanf:"local_addr" validate:"required"`
	AllowedOrigins string `koanf:"local_allowed_origins"`
}

func main() {
	ctx, cancel := di.InitContext()
	s := &settings{
		Base:               config.DefaultBase("local"),
		MinicourseSettings: di.DefaultMinicourseSettings(),
		VideoSettings:      di.DefaultVideoSettings(),
		Addr:               ":8080",
	}
	s.Environment = "local"
	c := di.MustBootstrap(ctx, s)
	cancel()
	defer c.Sync()

	minicourses := c.MinicourseRepository(s.MinicourseTableName, s.MinicourseBucketName)
	categories := c.CategoryRepository(s.CategoryTableName)
	videos := c.VideoRepository(s.VideoTableName, s.VideoBucketName)
	policy := c.DispatchPolicy()

	routes := local.Routes{
		Minicourse: handlers.NewMinicourseHandler(
			services.NewMinicourseService(minicourses, categories, s.MinicourseSettings.ServiceConfig(), c.Logger),
			policy, c.Logger),
		Category: handlers.NewCategoryHandler(services.NewCategoryService(categories, c.Logger), policy, c.Logger),
		Video: handlers.NewVideoHandler(
			services.NewVideoService(videos, s.VideoSettings.ServiceConfig(), c.Logger),
			policy, c.Logger),
		Question: handlers.NewQuestionHandler(services.NewQuestionService(c.Mailer(), c.Logger), c.Logger),
	}

	var origins []string
	if s.AllowedOrigins != "" {
		origins = strings.Split(s.AllowedOrigins, ",")
	}
	router := local.NewRouter(c.Preprocessor, c.Logger, origins).
		Setup(routes, pipeline.IncludeRepos(minicourses, categories, videos))

	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		c.Logger.Info("Local server listening", zap.String("addr", s.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.Logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		c.Logger.Error("Shutdown failed", zap.Error(err))
	}
}
