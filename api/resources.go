package api

import (
	"net/http"
	"time"

	"github.com/andhikadk/smi-test/internal/domain"
	"github.com/andhikadk/smi-test/internal/service/availability"
	"github.com/gin-gonic/gin"
)

type ResourceHandler struct {
	service availability.AvailabilityUseCase
}

type vehicleResponse struct {
	ID          int64  `json:"id"`
	PlateNumber string `json:"plate_number"`
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	Type        string `json:"type"`
}

type driverResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	LicenseNumber string `json:"license_number"`
	Phone         string `json:"phone"`
}

func NewResourceHandler(service availability.AvailabilityUseCase) *ResourceHandler {
	return &ResourceHandler{service: service}
}

func (h *ResourceHandler) Register(router *gin.RouterGroup) {
	router.GET("/vehicles/available", h.availableVehicles)
	router.GET("/drivers/available", h.availableDrivers)
}

func (h *ResourceHandler) availableVehicles(c *gin.Context) {
	start, end, ok := parseWindow(c)
	if !ok {
		return
	}
	vehicles, err := h.service.AvailableVehicles(c.Request.Context(), start, end)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]vehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		resp = append(resp, vehicleResponse{ID: v.ID, PlateNumber: v.PlateNumber, Brand: v.Brand, Model: v.Model, Type: v.Type})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ResourceHandler) availableDrivers(c *gin.Context) {
	start, end, ok := parseWindow(c)
	if !ok {
		return
	}
	drivers, err := h.service.AvailableDrivers(c.Request.Context(), start, end)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]driverResponse, 0, len(drivers))
	for _, d := range drivers {
		resp = append(resp, toDriverResponse(d))
	}
	c.JSON(http.StatusOK, resp)
}

func toDriverResponse(d domain.Driver) driverResponse {
	return driverResponse{ID: d.ID, Name: d.Name, LicenseNumber: d.LicenseNumber, Phone: d.Phone}
}

func parseWindow(c *gin.Context) (time.Time, time.Time, bool) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		abortWith(c, http.StatusBadRequest, "bad_request", "start must be an RFC3339 timestamp")
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		abortWith(c, http.StatusBadRequest, "bad_request", "end must be an RFC3339 timestamp")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
