package handler

import (
	"net/http"

	"moveops/internal/dto"
	"moveops/internal/service"

	"github.com/gin-gonic/gin"
)

type BookingsHandler struct{ svc service.BookingService }

func NewBookingsHandler(svc service.BookingService) *BookingsHandler {
	return &BookingsHandler{svc: svc}
}

// Create godoc
// @Summary      Create booking
// @Description  Schedules a move. Totals are recomputed server-side; an optional quote_id links back to the accepted quote.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateBookingRequest true "Booking data"
// @Success      201  {object} dto.BookingResponse
// @Failure      422  {object} apierror.ValidationFields
// @Router       /v1/bookings [post]
func (h *BookingsHandler) Create(c *gin.Context) {
	var req dto.CreateBookingRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary      Get booking by id
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Booking UUID"
// @Success      200 {object} dto.BookingResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/bookings/{id} [get]
func (h *BookingsHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      List bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        client_id query string false "Filter by client"
// @Param        status    query string false "pending | confirmed | in_progress | completed | cancelled | all"
// @Param        date      query string false "Shifting date YYYY-MM-DD"
// @Param        page      query int    false "Page (default 1)"
// @Param        limit     query int    false "Page size (default 20)"
// @Success      200 {object} dto.BookingListResponse
// @Router       /v1/bookings [get]
func (h *BookingsHandler) List(c *gin.Context) {
	var filter dto.BookingFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Update booking
// @Description  Edits schedule, addresses, lines and charges; totals are recomputed. Completed and cancelled bookings are immutable.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "Booking UUID"
// @Param        body body dto.UpdateBookingRequest true "Fields to update"
// @Success      200  {object} dto.BookingResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/bookings/{id} [put]
func (h *BookingsHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.UpdateBookingRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ChangeStatus godoc
// @Summary      Change booking status
// @Description  pending→confirmed→in_progress→completed; cancel from any active state. Invalid transitions conflict.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "Booking UUID"
// @Param        body body dto.BookingStatusRequest true "Target status"
// @Success      200  {object} dto.BookingResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/bookings/{id}/status [patch]
func (h *BookingsHandler) ChangeStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.BookingStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ChangeStatus(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordPayment godoc
// @Summary      Record payment
// @Description  Appends an immutable payment entry and recomputes paid/remaining atomically under a row lock.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "Booking UUID"
// @Param        body body dto.RecordPaymentRequest true "Payment"
// @Success      200  {object} dto.BookingResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/bookings/{id}/payments [post]
func (h *BookingsHandler) RecordPayment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.RecordPaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordPayment(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary      Delete booking
// @Description  Only pending bookings can be deleted.
// @Tags         bookings
// @Security     BearerAuth
// @Param        id path string true "Booking UUID"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/bookings/{id} [delete]
func (h *BookingsHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PDF godoc
// @Summary      Download booking PDF
// @Tags         bookings
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path string true "Booking UUID"
// @Success      200
// @Failure      404 {object} apierror.APIError
// @Router       /v1/bookings/{id}/pdf [get]
func (h *BookingsHandler) PDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	path, err := h.svc.RenderPDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.FileAttachment(path, filepathBase(path))
}
