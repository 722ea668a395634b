package main

import (
	"minicourse-backend/application/services"
	"minicourse-backend/infrastructure/config"
	"minicourse-backend/infrastructure/di"
	"minicourse-backend/interfaces/lambda/handlers"
	"minicourse-backend/interfaces/lambda/pipeline"
)

type settings struct {
	config.Base           `koanf:",squash"`
	di.MinicourseSettings `koanf:",squash"`
}

func main() {
	ctx, cancel := di.InitContext()
	s := &settings{
		Base:               config.DefaultBase("update-minicourse"),
		MinicourseSettings: di.DefaultMinicourseSettings(),
	}
	c := di.MustBootstrap(ctx, s)
	cancel()
	defer c.Sync()

	minicourses := c.MinicourseRepository(s.MinicourseTableName, s.MinicourseBucketName)

	svc := services.NewMinicourseService(minicourses, nil, s.ServiceConfig(), c.Logger)
	h := handlers.NewMinicourseHandler(svc, c.DispatchPolicy(), c.Logger)

	c.Start(h.Update, pipeline.IncludeRepos(minicourses))
}
