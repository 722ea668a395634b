package main

import (
	"minicourse-backend/application/services"
	"minicourse-backend/infrastructure/config"
	"minicourse-backend/infrastructure/di"
	"minicourse-backend/interfaces/lambda/handlers"
	"minicourse-backend/interfaces/lambda/pipeline"
)

type settings struct {
	config.Base         `koanf:",squash"`
	di.CategorySettings `koanf:",squash"`
}

func main() {
	ctx, cancel := di.InitContext()
	s := &settings{Base: config.DefaultBase("delete-category")}
	c := di.MustBootstrap(ctx, s)
	cancel()
	defer c.Sync()

	categories := c.CategoryRepository(s.CategoryTableName)

	svc := services.NewCategoryService(categories, c.Logger)
	h := handlers.NewCategoryHandler(svc, c.DispatchPolicy(), c.Logger)

	c.Start(h.Delete, pipeline.IncludeRepos(categories))
}
