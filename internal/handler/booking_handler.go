package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shareit/service-booking/internal/application"
	"github.com/shareit/service-booking/internal/common/middleware"
	"github.com/shareit/service-booking/internal/common/response"
)

// BookingService is the set of booking use cases served over HTTP.
type BookingService interface {
	CreateBooking(ctx context.Context, requesterID int64, req application.CreateBookingRequest) (*application.BookingDTO, error)
	ApproveBooking(ctx context.Context, actorID, bookingID int64, approved bool) (*application.BookingDTO, error)
	GetBooking(ctx context.Context, actorID, bookingID int64) (*application.BookingDTO, error)
	ListBookerBookings(ctx context.Context, actorID int64, state string, offset, limit int) ([]application.BookingDTO, error)
	ListOwnerBookings(ctx context.Context, actorID int64, state string, offset, limit int) ([]application.BookingDTO, error)
	BookingStats(ctx context.Context) (*application.BookingStatsDTO, error)
}

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
// Every route requires the X-Sharer-User-Id header.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, mw ...gin.HandlerFunc) {
	bookings := r.Group("/bookings")
	bookings.Use(middleware.UserIDMiddleware())
	bookings.Use(mw...)
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/owner", h.ListOwnerBookings)
		bookings.GET("/stats", h.BookingStats)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id", h.ApproveBooking)
	}
}

// CreateBooking handles POST /bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ApproveBooking handles PATCH /bookings/:id?approved=true|false.
func (h *BookingHandler) ApproveBooking(c *gin.Context) {
	bookingID, ok := parseID(c, "booking")
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	approved, err := strconv.ParseBool(c.Query("approved"))
	if err != nil {
		response.BadRequest(c, "approved must be true or false")
		return
	}

	result, err := h.service.ApproveBooking(c.Request.Context(), userID, bookingID, approved)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBooking handles GET /bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := parseID(c, "booking")
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), userID, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListBookings handles GET /bookings for the acting booker.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	h.list(c, h.service.ListBookerBookings)
}

// ListOwnerBookings handles GET /bookings/owner for the acting item owner.
func (h *BookingHandler) ListOwnerBookings(c *gin.Context) {
	h.list(c, h.service.ListOwnerBookings)
}

// BookingStats handles GET /bookings/stats.
func (h *BookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.BookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

type listFunc func(ctx context.Context, actorID int64, state string, offset, limit int) ([]application.BookingDTO, error)

func (h *BookingHandler) list(c *gin.Context, fn listFunc) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	from, size, ok := parsePagination(c)
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), userID, c.DefaultQuery("state", "ALL"), from, size)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// --- Helpers ---

func parseID(c *gin.Context, entity string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid "+entity+" ID")
		return 0, false
	}
	return id, true
}

// parsePagination reads from and size. A size of 0 means no limit; range
// checks are left to the service.
func parsePagination(c *gin.Context) (int, int, bool) {
	from, err := strconv.Atoi(c.DefaultQuery("from", "0"))
	if err != nil {
		response.BadRequest(c, "from must be an integer")
		return 0, 0, false
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "0"))
	if err != nil {
		response.BadRequest(c, "size must be an integer")
		return 0, 0, false
	}
	return from, size, true
}
