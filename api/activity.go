package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/andhikadk/smi-test/internal/domain"
	"github.com/andhikadk/smi-test/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	service booking.BookingUseCase
}

type activityResponse struct {
	ID        int64  `json:"id"`
	UserID    *int64 `json:"user_id"`
	Activity  string `json:"activity"`
	CreatedAt string `json:"created_at"`
}

func NewActivityHandler(service booking.BookingUseCase) *ActivityHandler {
	return &ActivityHandler{service: service}
}

func (h *ActivityHandler) Register(router *gin.RouterGroup) {
	router.GET("", RequireRole(domain.RoleAdmin), h.list)
}

func (h *ActivityHandler) list(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			abortWith(c, http.StatusBadRequest, "bad_request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	logs, err := h.service.ListActivities(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]activityResponse, 0, len(logs))
	for _, l := range logs {
		resp = append(resp, activityResponse{ID: l.ID, UserID: l.UserID, Activity: l.Activity, CreatedAt: l.CreatedAt.Format(time.RFC3339)})
	}
	c.JSON(http.StatusOK, resp)
}
