package handlers

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"minicourse-backend/application/services"
	"minicourse-backend/interfaces/lambda/pipeline"
)

// Minicourse get actions.
const (
	ActionGetMinicourse          = "get_minicourse"
	ActionGetMultipleMinicourses = "get_multiple_minicourses"
	ActionGetThumbUploadURL      = "get_minicourse_thumb_upload_url"
	ActionGetCategoryMinicourses = "get_category_minicourses"
)

// CategoryIDParams addresses the minicourses of a category.
type CategoryIDParams struct {
	CategoryID string `json:"category_id" validate:"required"`
}

// MinicourseHandler serves the minicourse functions.
type MinicourseHandler struct {
	service *services.MinicourseService
	policy  pipeline.UnknownActionPolicy
	logger  *zap.Logger
}

// NewMinicourseHandler creates a new minicourse handler
func NewMinicourseHandler(service *services.MinicourseService, policy pipeline.UnknownActionPolicy, logger *zap.Logger) *MinicourseHandler {
	return &MinicourseHandler{service: service, policy: policy, logger: orNop(logger)}
}

// Create handles POST /minicourse
func (h *MinicourseHandler) Create(ctx context.Context, event *pipeline.Event) (events.APIGatewayProxyResponse, error) {
	var req services.CreateMinicourseRequest
	if err := event.Bind(&req); err != nil {
		return respond(h.logger, "create_minicourse", nil, err)
	}
	created, err := h.service.Create(ctx, req)
	return respond(h.logger, "create_minicourse", created, err)
}

// Actions lists the operations of POST /minicourse/get.
func (h *MinicourseHandler) Actions() pipeline.Registry {
	return pipeline.Registry{
		ActionGetMinicourse: pipeline.Action(func(ctx context.Context, p IDParams) (any, error) {
			return h.service.Get(ctx, p.ID)
		}),
		ActionGetMultipleMinicourses: pipeline.Action(func(ctx context.Context, p IDsParams) (any, error) {
			return h.service.GetMultiple(ctx, p.IDs)
		}),
		ActionGetThumbUploadURL: pipeline.Action(func(ctx context.Context, p IDParams) (any, error) {
			return h.service.ThumbUploadURL(ctx, p.ID)
		}),
		ActionGetCategoryMinicourses: pipeline.Action(func(ctx context.Context, p CategoryIDParams) (any, error) {
			return h.service.ByCategory(ctx, p.CategoryID)
		}),
	}
}

// Get handles POST /minicourse/get
func (h *MinicourseHandler) Get() pipeline.Handler {
	return pipeline.NewDispatcher(h.Actions(), h.policy, h.logger).Handle
}

// Update handles PUT /minicourse
func (h *MinicourseHandler) Update(ctx context.Context, event *pipeline.Event) (events.APIGatewayProxyResponse, error) {
	id, fields, err := updateFields(event)
	if err != nil {
		return respond(h.logger, "update_minicourse", nil, err)
	}
	updated, err := h.service.Update(ctx, id, fields)
	return respond(h.logger, "update_minicourse", updated, err)
}

// Delete handles DELETE /minicourse
func (h *MinicourseHandler) Delete(ctx context.Context, event *pipeline.Event) (events.APIGatewayProxyResponse, error) {
	var p IDParams
	if err := event.Bind(&p); err != nil {
		return respond(h.logger, "delete_minicourse", nil, err)
	}
	deleted, err := h.service.Delete(ctx, p.ID)
	return respond(h.logger, "delete_minicourse", deleted, err)
}
