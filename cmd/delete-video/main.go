package main

import (
	"minicourse-backend/application/services"
	"minicourse-backend/infrastructure/config"
	"minicourse-backend/infrastructure/di"
	"minicourse-backend/interfaces/lambda/handlers"
	"minicourse-backend/interfaces/lambda/pipeline"
)

type settings struct {
	config.Base      `koanf:",squash"`
	di.VideoSettings `koanf:",squash"`
}

func main() {
	ctx, cancel := di.InitContext()
	s := &settings{
		Base:          config.DefaultBase("delete-video"),
		VideoSettings: di.DefaultVideoSettings(),
	}
	c := di.MustBootstrap(ctx, s)
	cancel()
	defer c.Sync()

	videos := c.VideoRepository(s.VideoTableName, s.VideoBucketName)

	svc := services.NewVideoService(videos, s.ServiceConfig(), c.Logger)
	h := handlers.NewVideoHandler(svc, c.DispatchPolicy(), c.Logger)

	c.Start(h.Delete, pipeline.IncludeRepos(videos))
}
