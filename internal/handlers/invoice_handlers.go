package handlers

import (
	"errors"
	"net/http"

	"cafeshift_backend/internal/models"
	"cafeshift_backend/internal/services"
	"cafeshift_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InvoiceHandler holds the invoice service.
type InvoiceHandler struct {
	invoiceService services.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(is services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: is}
}

func mapInvoiceError(err error) *utils.APIError {
	switch {
	case errors.Is(err, services.ErrInvoiceNotFound):
		return utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Invoice not found.", err.Error())
	case errors.Is(err, services.ErrInvoiceExists):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "An invoice already exists for this shift.", err.Error())
	case errors.Is(err, services.ErrInvoiceStateConflict),
		errors.Is(err, services.ErrShiftNotCompleted),
		errors.Is(err, services.ErrInvoicingModeMismatch):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Invoice state does not allow this action.", err.Error())
	case errors.Is(err, services.ErrNotInvoiceOwner):
		return utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Invoice belongs to another cafe.", err.Error())
	case errors.Is(err, services.ErrPaymentProofRequired):
		return utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "A payment proof reference is required.", err.Error())
	default:
		return mapShiftError(err)
	}
}

// GenerateInvoice issues a draft invoice for a completed shift (postpaid
// mode).
func (h *InvoiceHandler) GenerateInvoice(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	shiftID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GenerateInvoice(actor, shiftID)
	if err != nil {
		utils.LogError(err, "GenerateInvoice: Error from invoiceService.GenerateInvoice")
		utils.RespondWithError(c, mapInvoiceError(err))
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

// GetInvoice returns one invoice.
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoiceByID(actor, invoiceID)
	if err != nil {
		utils.RespondWithError(c, mapInvoiceError(err))
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// GetInvoices lists invoices; cafes are always scoped to their own.
func (h *InvoiceHandler) GetInvoices(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	filters := models.InvoiceFilters{
		CafeID:   queryInt64(c, "cafe_id"),
		ShiftID:  queryInt64(c, "shift_id"),
		Status:   queryString(c, "status"),
		Page:     queryIntDefault(c, "page", 1),
		PageSize: queryIntDefault(c, "page_size", 20),
	}

	invoices, totalCount, err := h.invoiceService.GetInvoices(actor, filters)
	if err != nil {
		utils.LogError(err, "GetInvoices: Error from invoiceService.GetInvoices")
		utils.RespondWithError(c, mapInvoiceError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      invoices,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// ApproveInvoice moves a draft invoice to approved (admin).
func (h *InvoiceHandler) ApproveInvoice(c *gin.Context) {
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.ApproveInvoice(invoiceID)
	if err != nil {
		utils.LogError(err, "ApproveInvoice: Error from invoiceService.ApproveInvoice")
		utils.RespondWithError(c, mapInvoiceError(err))
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// SubmitProof attaches the cafe's transfer proof to an approved invoice.
func (h *InvoiceHandler) SubmitProof(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		PaymentProofRef string `json:"payment_proof_ref" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, "payment_proof_ref is required")
		return
	}

	invoice, err := h.invoiceService.SubmitProof(actor, invoiceID, req.PaymentProofRef)
	if err != nil {
		utils.LogError(err, "SubmitProof: Error from invoiceService.SubmitProof")
		utils.RespondWithError(c, mapInvoiceError(err))
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// MarkPaid verifies a submitted proof and settles the invoice (admin).
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.MarkPaid(invoiceID)
	if err != nil {
		utils.LogError(err, "MarkPaid: Error from invoiceService.MarkPaid")
		utils.RespondWithError(c, mapInvoiceError(err))
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// RejectProof sends a submitted proof back to the cafe (admin).
func (h *InvoiceHandler) RejectProof(c *gin.Context) {
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.RespondValidationFailed(c, "Invalid request payload: "+err.Error())
		return
	}

	invoice, err := h.invoiceService.RejectProof(invoiceID, req.Reason)
	if err != nil {
		utils.LogError(err, "RejectProof: Error from invoiceService.RejectProof")
		utils.RespondWithError(c, mapInvoiceError(err))
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// DownloadPDF streams the rendered invoice document.
func (h *InvoiceHandler) DownloadPDF(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	data, filename, err := h.invoiceService.RenderPDF(actor, invoiceID)
	if err != nil {
		utils.LogError(err, "DownloadPDF: Error from invoiceService.RenderPDF")
		utils.RespondWithError(c, mapInvoiceError(err))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
