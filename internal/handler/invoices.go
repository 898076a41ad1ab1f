package handler

import (
	"net/http"

	"moveops/internal/dto"
	"moveops/internal/service"

	"github.com/gin-gonic/gin"
)

type InvoicesHandler struct{ svc service.InvoiceService }

func NewInvoicesHandler(svc service.InvoiceService) *InvoicesHandler {
	return &InvoicesHandler{svc: svc}
}

// Create godoc
// @Summary      Create invoice from booking
// @Description  Derives the invoice exactly once per booking: items, charges and the VAT amount are copied as snapshots. A second attempt conflicts without creating or mutating anything.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateInvoiceRequest true "Source booking"
// @Success      201  {object} dto.InvoiceResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/invoices [post]
func (h *InvoicesHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateFromBooking(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary      Get invoice by id
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Invoice UUID"
// @Success      200 {object} dto.InvoiceResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/invoices/{id} [get]
func (h *InvoicesHandler) Get(c *gin.Context) {
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
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        client_id      query string false "Filter by client"
// @Param        status         query string false "draft | sent | paid | overdue | cancelled"
// @Param        payment_status query string false "unpaid | partial | paid"
// @Param        page           query int    false "Page (default 1)"
// @Param        limit          query int    false "Page size (default 20)"
// @Success      200 {object} dto.InvoiceListResponse
// @Router       /v1/invoices [get]
func (h *InvoicesHandler) List(c *gin.Context) {
	var filter dto.InvoiceFilter
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

// Signature godoc
// @Summary      Capture delivery signature
// @Description  Records the signature payload and signer, confirming delivery one-way. A signed invoice cannot be re-signed.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string               true "Invoice UUID"
// @Param        body body dto.SignatureRequest true "Signature"
// @Success      200  {object} dto.InvoiceResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/invoices/{id}/signature [post]
func (h *InvoicesHandler) Signature(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.SignatureRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CaptureSignature(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SendEmail godoc
// @Summary      Email invoice PDF
// @Description  Validates the recipient before rendering; a transport failure leaves the invoice untouched.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                      true  "Invoice UUID"
// @Param        body body dto.SendInvoiceEmailRequest false "Recipient override / message"
// @Success      200  {object} dto.SendEmailResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/invoices/{id}/send-email [post]
func (h *InvoicesHandler) SendEmail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.SendInvoiceEmailRequest
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
// @Summary      Download invoice PDF
// @Tags         invoices
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path string true "Invoice UUID"
// @Success      200
// @Failure      404 {object} apierror.APIError
// @Router       /v1/invoices/{id}/pdf [get]
func (h *InvoicesHandler) PDF(c *gin.Context) {
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
