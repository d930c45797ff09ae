package api

import (
	"fmt"
	"net/http"
	"strings"

	"invoice-desk/internal/apiclient"
	"invoice-desk/internal/models"
	"invoice-desk/internal/pricing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type submitResponse struct {
	Invoice    *models.InvoiceResult `json:"invoice"`
	Totals     pricing.Totals        `json:"totals"`
	PDF        []byte                `json:"pdf,omitempty"`
	PDFWarning string                `json:"pdf_warning,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// submitInvoice runs the submission flow. The PDF travels base64 encoded
// in the body; a PDF failure still answers 201 with pdf_warning set.
func (h *Handler) submitInvoice(c *gin.Context) {
	outcome, err := h.desks.Submit(c.Request.Context(), deskFrom(c))
	if err != nil {
		h.respondError(c, err, "Failed to create invoice")
		return
	}

	c.JSON(http.StatusCreated, submitResponse{
		Invoice:    outcome.Invoice,
		Totals:     outcome.Totals,
		PDF:        outcome.PDF,
		PDFWarning: outcome.PDFWarning,
	})
}

func (h *Handler) listInvoices(c *gin.Context) {
	list, err := h.desks.Invoices(c.Request.Context(), c.Query("search"), c.DefaultQuery("status", "all"))
	if err != nil {
		h.respondError(c, err, "Failed to load invoices")
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *Handler) listSubmissions(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	list, err := h.desks.Submissions(c.Request.Context(), deskFrom(c), limit)
	if err != nil {
		h.respondError(c, err, "Failed to load submissions")
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *Handler) updateInvoiceStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	inv, err := h.desks.UpdateInvoiceStatus(c.Request.Context(), deskFrom(c), id, req.Status)
	if err != nil {
		h.respondError(c, err, "Failed to update status")
		return
	}

	c.JSON(http.StatusOK, inv)
}

func (h *Handler) deleteInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.desks.DeleteInvoice(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to delete invoice")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) invoicePDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	hints := apiclient.PDFHints{ThankYouMessage: strings.TrimSpace(c.Query("thank_you_message"))}
	if raw := c.Query("pending_amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pending_amount"})
			return
		}
		hints.PendingAmount = amount
	}

	doc, err := h.desks.InvoicePDF(c.Request.Context(), id, hints)
	if err != nil {
		h.respondError(c, err, "Failed to generate PDF")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice_%d.pdf", id))
	c.Data(http.StatusOK, "application/pdf", doc)
}
