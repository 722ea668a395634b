package handlers

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"minicourse-backend/application/services"
	"minicourse-backend/interfaces/lambda/pipeline"
)

// Category get actions.
const (
	ActionGetCategory           = "get_category"
	ActionGetAllCategories      = "get_all_categories"
	ActionGetMultipleCategories = "get_multiple_categories"
)

type emptyParams struct{}

// CategoryHandler serves the category functions.
type CategoryHandler struct {
	service *services.CategoryService
	policy  pipeline.UnknownActionPolicy
	logger  *zap.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(service *services.CategoryService, policy pipeline.UnknownActionPolicy, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{service: service, policy: policy, logger: orNop(logger)}
}

// Create handles POST /minicourse/category
func (h *CategoryHandler) Create(ctx context.Context, event *pipeline.Event) (events.APIGatewayProxyResponse, error) {
	var req services.CreateCategoryRequest
	if err := event.Bind(&req); err != nil {
		return respond(h.logger, "create_category", nil, err)
	}
	created, err := h.service.Create(ctx, req)
	return respond(h.logger, "create_category", created, err)
}

// Actions lists the operations of POST /minicourse/category/get.
func (h *CategoryHandler) Actions() pipeline.Registry {
	return pipeline.Registry{
		ActionGetCategory: pipeline.Action(func(ctx context.Context, p IDParams) (any, error) {
			return h.service.Get(ctx, p.ID)
		}),
		ActionGetAllCategories: pipeline.Action(func(ctx context.Context, _ emptyParams) (any, error) {
			return h.service.All(ctx)
		}),
		ActionGetMultipleCategories: pipeline.Action(func(ctx context.Context, p IDsParams) (any, error) {
			return h.service.GetMultiple(ctx, p.IDs)
		}),
	}
}

// Get handles POST /minicourse/category/get
func (h *CategoryHandler) Get() pipeline.Handler {
	return pipeline.NewDispatcher(h.Actions(), h.policy, h.logger).Handle
}

// Update handles PUT /minicourse/category
func (h *CategoryHandler) Update(ctx context.Context, event *pipeline.Event) (events.APIGatewayProxyResponse, error) {
	id, fields, err := updateFields(event)
	if err != nil {
		return respond(h.logger, "update_category", nil, err)
	}
	updated, err := h.service.Update(ctx, id, fields)
	return respond(h.logger, "update_category", updated, err)
}

// Delete handles DELETE /minicourse/category
func (h *CategoryHandler) Delete(ctx context.Context, event *pipeline.Event) (events.APIGatewayProxyResponse, error) {
	var p IDParams
	if err := event.Bind(&p); err != nil {
		return respond(h.logger, "delete_category", nil, err)
	}
	deleted, err := h.service.Delete(ctx, p.ID)
	return respond(h.logger, "delete_category", deleted, err)
}
