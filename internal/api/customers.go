package api

import (
	"net/http"

	"invoice-desk/internal/models"

	"github.com/gin-gonic/gin"
)

type selectCustomerRequest struct {
	CustomerID int64 `json:"customer_id" binding:"required"`
}

type editCustomerRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

func (h *Handler) getCustomerDraft(c *gin.Context) {
	c.JSON(http.StatusOK, deskFrom(c).Customer.Draft())
}

func (h *Handler) selectCustomer(c *gin.Context) {
	var req selectCustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	draft, err := h.desks.SelectCustomer(c.Request.Context(), deskFrom(c), req.CustomerID)
	if err != nil {
		h.respondError(c, err, "Failed to select customer")
		return
	}

	c.JSON(http.StatusOK, draft)
}

func (h *Handler) editCustomerDraft(c *gin.Context) {
	var req editCustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	draft, err := h.desks.EditCustomer(deskFrom(c), req.Field, req.Value)
	if err != nil {
		h.respondError(c, err, "Failed to update customer")
		return
	}

	c.JSON(http.StatusOK, draft)
}

func (h *Handler) listCustomers(c *gin.Context) {
	list, err := h.desks.Customers(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.respondError(c, err, "Failed to load customers")
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *Handler) createCustomer(c *gin.Context) {
	var in models.CustomerInput
	if !bindJSON(c, &in) {
		return
	}

	created, err := h.desks.CreateCustomer(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err, "Failed to save customer")
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *Handler) updateCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var in models.CustomerInput
	if !bindJSON(c, &in) {
		return
	}

	updated, err := h.desks.UpdateCustomer(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err, "Failed to update customer")
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.desks.DeleteCustomer(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to delete customer")
		return
	}

	c.Status(http.StatusNoContent)
}
