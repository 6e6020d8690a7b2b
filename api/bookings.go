package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/andhikadk/smi-test/internal/domain"
	"github.com/andhikadk/smi-test/internal/service/booking"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	RequesterID int64     `json:"requester_id"`
	VehicleID   int64     `json:"vehicle_id"`
	DriverID    int64     `json:"driver_id"`
	Approver1ID int64     `json:"approver_1_id"`
	Approver2ID int64     `json:"approver_2_id"`
	Purpose     string    `json:"purpose"`
	StartAt     time.Time `json:"start_datetime"`
	EndAt       time.Time `json:"end_datetime"`
}

type rejectBookingRequest struct {
	Notes string `json:"notes"`
}

type bookingResponse struct {
	ID                   int64  `json:"id"`
	RequesterID          int64  `json:"requester_id"`
	VehicleID            int64  `json:"vehicle_id"`
	DriverID             int64  `json:"driver_id"`
	Approver1ID          int64  `json:"approver_1_id"`
	Approver2ID          int64  `json:"approver_2_id"`
	Purpose              string `json:"purpose"`
	StartAt              string `json:"start_datetime"`
	EndAt                string `json:"end_datetime"`
	Status               string `json:"status"`
	StatusLabel          string `json:"status_label"`
	CurrentApprovalLevel int    `json:"current_approval_level"`
	CreatedAt            string `json:"created_at"`
	UpdatedAt            string `json:"updated_at"`
}

type approvalResponse struct {
	ApproverID int64  `json:"approver_id"`
	Level      int    `json:"approval_level"`
	Outcome    string `json:"status"`
	Notes      string `json:"notes,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type bookingDetailsResponse struct {
	bookingResponse
	Approvals []approvalResponse `json:"approvals"`
	CanAct    bool               `json:"can_act"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

// Register expects Authenticate to run before these routes.
func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", RequireRole(domain.RoleAdmin), h.create)
	router.GET("", RequireRole(domain.RoleAdmin, domain.RoleApprover), h.list)
	router.GET("/:id", h.get)
	router.POST("/:id/approve", RequireRole(domain.RoleApprover), h.approve)
	router.POST("/:id/reject", RequireRole(domain.RoleApprover), h.reject)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		ActorID:     actor(c),
		RequesterID: req.RequesterID,
		VehicleID:   req.VehicleID,
		DriverID:    req.DriverID,
		Approver1ID: req.Approver1ID,
		Approver2ID: req.Approver2ID,
		Purpose:     req.Purpose,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) list(c *gin.Context) {
	if identity, ok := identityFrom(c); ok && identity.Role == domain.RoleApprover {
		bookings, err := h.service.ListPendingForApprover(c.Request.Context(), identity.UserID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponses(bookings))
		return
	}

	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	bookings, err := h.service.ListBookings(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponses(bookings))
}

func (h *BookingHandler) get(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	details, err := h.service.GetBooking(c.Request.Context(), id, actor(c))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := bookingDetailsResponse{
		bookingResponse: toBookingResponse(details.Booking),
		Approvals:       make([]approvalResponse, 0, len(details.Approvals)),
		CanAct:          details.CanAct,
	}
	for _, a := range details.Approvals {
		resp.Approvals = append(resp.Approvals, approvalResponse{
			ApproverID: a.ApproverID,
			Level:      a.Level,
			Outcome:    string(a.Outcome),
			Notes:      a.Notes,
			CreatedAt:  a.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) approve(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	updated, err := h.service.ApproveBooking(c.Request.Context(), id, actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(updated))
}

func (h *BookingHandler) reject(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req rejectBookingRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWith(c, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
	}

	updated, err := h.service.RejectBooking(c.Request.Context(), id, actor(c), req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(updated))
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortWith(c, http.StatusBadRequest, "bad_request", "invalid id")
		return 0, false
	}
	return id, true
}

func parseFilter(c *gin.Context) (domain.BookingFilter, bool) {
	var filter domain.BookingFilter
	if raw := c.Query("status"); raw != "" {
		status, ok := domain.ParseBookingStatus(raw)
		if !ok {
			abortWith(c, http.StatusBadRequest, "bad_request", "unknown status "+raw)
			return filter, false
		}
		filter.Status = status
	}
	for param, dst := range map[string]**time.Time{"date_from": &filter.DateFrom, "date_to": &filter.DateTo} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		day, err := time.Parse(dateLayout, raw)
		if err != nil {
			abortWith(c, http.StatusBadRequest, "bad_request", param+" must be YYYY-MM-DD")
			return filter, false
		}
		*dst = &day
	}
	return filter, true
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:                   b.ID,
		RequesterID:          b.RequesterID,
		VehicleID:            b.VehicleID,
		DriverID:             b.DriverID,
		Approver1ID:          b.Approver1ID,
		Approver2ID:          b.Approver2ID,
		Purpose:              b.Purpose,
		StartAt:              b.StartAt.Format(time.RFC3339),
		EndAt:                b.EndAt.Format(time.RFC3339),
		Status:               string(b.Status),
		StatusLabel:          b.Status.Label(),
		CurrentApprovalLevel: b.CurrentApprovalLevel,
		CreatedAt:            b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            b.UpdatedAt.Format(time.RFC3339),
	}
}

func toBookingResponses(bookings []domain.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	return out
}
