package api

import (
	"net/http"

	"invoice-desk/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	rec, token, err := h.sessions.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "Login failed.")
		return
	}

	h.desks.OpenDesk(rec.ID, rec.User)

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"session_id": rec.ID,
		"user":       rec.User,
	})
}

func (h *Handler) signupShop(c *gin.Context) {
	var req models.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.signup.Signup(c.Request.Context(), req); err != nil {
		h.respondError(c, err, "Signup failed.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Signup successful"})
}

func (h *Handler) logout(c *gin.Context) {
	rec := sessionFrom(c)

	if err := h.sessions.Logout(c.Request.Context(), rec.ID); err != nil {
		h.respondError(c, err, "Logout failed.")
		return
	}
	h.desks.CloseDesk(rec.ID)

	c.Status(http.StatusNoContent)
}

func (h *Handler) currentSession(c *gin.Context) {
	rec := sessionFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"session_id": rec.ID,
		"user":       rec.User,
		"created_at": rec.CreatedAt,
	})
}
