package handler

import (
	"net/http"

	"moveops/internal/dto"
	"moveops/internal/service"

	"github.com/gin-gonic/gin"
)

type QuotesHandler struct{ svc service.QuoteService }

func NewQuotesHandler(svc service.QuoteService) *QuotesHandler { return &QuotesHandler{svc: svc} }

// Create godoc
// @Summary      Create quote
// @Description  Prices the quote server-side: line totals, charges, discounts and VAT are recomputed from the catalog snapshot, never trusted from the request.
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateQuoteRequest true "Quote data"
// @Success      201  {object} dto.QuoteResponse
// @Failure      422  {object} apierror.ValidationFields
// @Router       /v1/quotes [post]
func (h *QuotesHandler) Create(c *gin.Context) {
	var req dto.CreateQuoteRequest
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
// @Summary      Get quote by id
// @Tags         quotes
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Quote UUID"
// @Success      200 {object} dto.QuoteResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/quotes/{id} [get]
func (h *QuotesHandler) Get(c *gin.Context) {
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
// @Summary      List quotes
// @Tags         quotes
// @Produce      json
// @Security     BearerAuth
// @Param        client_id query string false "Filter by client"
// @Param        status    query string false "draft | sent"
// @Param        page      query int    false "Page (default 1)"
// @Param        limit     query int    false "Page size (default 20)"
// @Success      200 {object} dto.QuoteListResponse
// @Router       /v1/quotes [get]
func (h *QuotesHandler) List(c *gin.Context) {
	var filter dto.QuoteFilter
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
// @Summary      Update quote
// @Description  Resubmits the full line/charge/discount sets; all totals are recomputed.
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Quote UUID"
// @Param        body body dto.UpdateQuoteRequest true "New quote content"
// @Success      200  {object} dto.QuoteResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/quotes/{id} [put]
func (h *QuotesHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.UpdateQuoteRequest
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

// Delete godoc
// @Summary      Delete quote
// @Tags         quotes
// @Security     BearerAuth
// @Param        id path string true "Quote UUID"
// @Success      204
// @Router       /v1/quotes/{id} [delete]
func (h *QuotesHandler) Delete(c *gin.Context) {
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

// SendEmail godoc
// @Summary      Email quote PDF
// @Description  Renders the quote PDF and emails it to the client (or an override address). A send that succeeds but fails to persist the sent status returns 200 with a warning.
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                    true  "Quote UUID"
// @Param        body body dto.SendQuoteEmailRequest false "Recipient override / message"
// @Success      200  {object} dto.SendEmailResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/quotes/{id}/send-email [post]
func (h *QuotesHandler) SendEmail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.SendQuoteEmailRequest
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SendEmail(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PDF godoc
// @Summary      Download quote PDF
// @Tags         quotes
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path string true "Quote UUID"
// @Success      200
// @Failure      404 {object} apierror.APIError
// @Router       /v1/quotes/{id}/pdf [get]
func (h *QuotesHandler) PDF(c *gin.Context) {
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
