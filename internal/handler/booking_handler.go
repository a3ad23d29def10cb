package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/RyzenMagsino/Carwash/internal/application"
	bookingDomain "github.com/RyzenMagsino/Carwash/internal/domain/booking"
	"github.com/RyzenMagsino/Carwash/pkg/auth"
	"github.com/RyzenMagsino/Carwash/pkg/middleware"
	"github.com/RyzenMagsino/Carwash/pkg/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
// Role gating stays at this edge; the lifecycle engine is permission-agnostic.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	staffRole := middleware.RequireRole(auth.RoleStaff)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", staffRole, h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/approve", staffRole, h.ApproveBooking)
		bookings.POST("/:id/reject", staffRole, h.RejectBooking)
		bookings.POST("/:id/start", staffRole, h.StartService)
		bookings.POST("/:id/complete", staffRole, h.CompleteService)
	}
}

// CreateBooking handles POST /api/v1/bookings (walk-in intake at the counter).
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings. The optional status query
// filters by dashboard tab.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)
	status := c.Query("status")

	result, err := h.service.ListBookings(c.Request.Context(), status, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// approveRequest is the body for POST /api/v1/bookings/:id/approve.
type approveRequest struct {
	Team string `json:"team"`
}

// ApproveBooking handles POST /api/v1/bookings/:id/approve.
func (h *BookingHandler) ApproveBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RequestTransition(
		c.Request.Context(),
		bookingID,
		bookingDomain.StatusApproved,
		application.TransitionOptions{Team: req.Team},
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RejectBooking handles POST /api/v1/bookings/:id/reject.
func (h *BookingHandler) RejectBooking(c *gin.Context) {
	h.transition(c, bookingDomain.StatusRejected)
}

// StartService handles POST /api/v1/bookings/:id/start.
func (h *BookingHandler) StartService(c *gin.Context) {
	h.transition(c, bookingDomain.StatusOngoing)
}

// CompleteService handles POST /api/v1/bookings/:id/complete.
func (h *BookingHandler) CompleteService(c *gin.Context) {
	h.transition(c, bookingDomain.StatusCompleted)
}

func (h *BookingHandler) transition(c *gin.Context, target bookingDomain.BookingStatus) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.RequestTransition(c.Request.Context(), bookingID, target, application.TransitionOptions{})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
