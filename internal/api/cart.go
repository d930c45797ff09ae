package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addToCartRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
}

type updateQuantityRequest struct {
	Delta int `json:"delta" binding:"required"`
}

func (h *Handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.desks.Cart(deskFrom(c)))
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req addToCartRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.desks.AddToCart(c.Request.Context(), deskFrom(c), req.ProductID)
	if err != nil {
		h.respondError(c, err, "Failed to add item to cart")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *Handler) updateCartItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateQuantityRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.desks.UpdateCartQuantity(deskFrom(c), id, req.Delta)
	if err != nil {
		h.respondError(c, err, "Failed to update cart")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *Handler) removeCartItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	view, err := h.desks.RemoveFromCart(deskFrom(c), id)
	if err != nil {
		h.respondError(c, err, "Failed to update cart")
		return
	}

	c.JSON(http.StatusOK, view)
}
