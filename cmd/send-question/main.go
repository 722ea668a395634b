package main

import (
	"minicourse-backend/application/services"
	"minicourse-backend/infrastructure/config"
	"minicourse-backend/infrastructure/di"
	"minicourse-backend/interfaces/lambda/handlers"
)

func main() {
	ctx, cancel := di.InitContext()
	base := config.DefaultBase("send-question")
	c := di.MustBootstrap(ctx, &base)
	cancel()
	defer c.Sync()

	svc := services.NewQuestionService(c.Mailer(), c.Logger)
	h := handlers.NewQuestionHandler(svc, c.Logger)

	c.Start(h.Send)
}
