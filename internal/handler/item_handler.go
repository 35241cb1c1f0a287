package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/shareit/service-booking/internal/application"
	"github.com/shareit/service-booking/internal/common/middleware"
	"github.com/shareit/service-booking/internal/common/response"
)

// ItemService serves items annotated with their bookings.
type ItemService interface {
	ListOwnerItems(ctx context.Context, ownerID int64) ([]application.ItemWithBookingsDTO, error)
	GetItem(ctx context.Context, actorID, itemID int64) (*application.ItemWithBookingsDTO, error)
}

// CommentEligibility answers whether a user may comment on an item.
type CommentEligibility interface {
	Eligibility(ctx context.Context, userID, itemID int64) (*application.EligibilityDTO, error)
}

// ItemHandler handles HTTP requests for item views.
type ItemHandler struct {
	items    ItemService
	comments CommentEligibility
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(items ItemService, comments CommentEligibility) *ItemHandler {
	return &ItemHandler{items: items, comments: comments}
}

// RegisterRoutes registers item routes on the given router group.
func (h *ItemHandler) RegisterRoutes(r *gin.RouterGroup, mw ...gin.HandlerFunc) {
	items := r.Group("/items")
	items.Use(middleware.UserIDMiddleware())
	items.Use(mw...)
	{
		items.GET("", h.ListOwnerItems)
		items.GET("/:id", h.GetItem)
		items.GET("/:id/comment-eligibility", h.CommentEligibility)
	}
}

// ListOwnerItems handles GET /items.
func (h *ItemHandler) ListOwnerItems(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.items.ListOwnerItems(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetItem handles GET /items/:id.
func (h *ItemHandler) GetItem(c *gin.Context) {
	itemID, ok := parseID(c, "item")
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.items.GetItem(c.Request.Context(), userID, itemID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CommentEligibility handles GET /items/:id/comment-eligibility.
func (h *ItemHandler) CommentEligibility(c *gin.Context) {
	itemID, ok := parseID(c, "item")
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.comments.Eligibility(c.Request.Context(), userID, itemID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
