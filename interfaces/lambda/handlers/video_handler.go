package handlers

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"minicourse-backend/application/services"
	"minicourse-backend/interfaces/lambda/pipeline"
)

// Video get actions.
const (
	ActionGetVideo            = "get_video"
	ActionGetMinicourseVideos = "get_minicourse_videos"
)

// MinicourseIDParams addresses the videos of a minicourse.
type MinicourseIDParams struct {
	MinicourseID string `json:"minicourse_id" validate:"required"`
}

// VideoHandler serves the video functions.
type VideoHandler struct {
	service *services.VideoService
	policy  pipeline.UnknownActionPolicy
	logger  *zap.Logger
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(service *services.VideoService, policy pipeline.UnknownActionPolicy, logger *zap.Logger) *VideoHandler {
	return &VideoHandler{service: service, policy: policy, logger: orNop(logger)}
}

// Create handles POST /minicourse/video
func (h *VideoHandler) Create(ctx context.Context, event *pipeline.Event) (events.APIGatewayProxyResponse, error) {
	var req services.CreateVideoRequest
	if err := event.Bind(&req); err != nil {
		return respond(h.logger, "create_video", nil, err)
	}
	created, err := h.service.Create(ctx, req)
	return respond(h.logger, "create_video", created, err)
}

// Actions lists the operations of POST /minicourse/video/get.
func (h *VideoHandler) Actions() pipeline.Registry {
	return pipeline.Registry{
		ActionGetVideo: pipeline.Action(func(ctx context.Context, p IDParams) (any, error) {
			return h.service.Get(ctx, p.ID)
		}),
		ActionGetMinicourseVideos: pipeline.Action(func(ctx context.Context, p MinicourseIDParams) (any, error) {
			return h.service.ByMinicourse(ctx, p.MinicourseID)
		}),
	}
}

// Get handles POST /minicourse/video/get
func (h *VideoHandler) Get() pipeline.Handler {
	return pipeline.NewDispatcher(h.Actions(), h.policy, h.logger).Handle
}

// Delete handles DELETE /minicourse/video
func (h *VideoHandler) Delete(ctx context.Context, event *pipeline.Event) (events.APIGatewayProxyResponse, error) {
	var p IDParams
	if err := event.Bind(&p); err != nil {
		return respond(h.logger, "delete_video", nil, err)
	}
	deleted, err := h.service.Delete(ctx, p.ID)
	return respond(h.logger, "delete_video", deleted, err)
}
