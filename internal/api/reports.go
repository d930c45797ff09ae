package api

import (
	"net/http"
	"time"

	"invoice-desk/internal/models"
	"invoice-desk/internal/reports"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

func (h *Handler) reportSummary(c *gin.Context) {
	var criteria reports.Criteria
	var err error

	if criteria.From, err = queryDate(c, "from"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
		return
	}
	if criteria.To, err = queryDate(c, "to"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
		return
	}

	if raw := c.Query("status"); raw != "" && raw != "all" {
		status, ok := models.ParseInvoiceStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of all, pending, paid, cancelled"})
			return
		}
		criteria.Status = status
	}

	if criteria.Min, err = queryDecimal(c, "min"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min must be a number"})
		return
	}
	if criteria.Max, err = queryDecimal(c, "max"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max must be a number"})
		return
	}

	summary, err := h.desks.ReportSummary(c.Request.Context(), criteria)
	if err != nil {
		h.respondError(c, err, "Failed to load reports")
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *Handler) dailySales(c *gin.Context) {
	day, err := queryDate(c, "date")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	if day.IsZero() {
		day = time.Now()
	}

	sales, err := h.desks.DailySales(c.Request.Context(), day)
	if err != nil {
		h.respondError(c, err, "Failed to load daily sales")
		return
	}

	c.JSON(http.StatusOK, sales)
}

func (h *Handler) tally(c *gin.Context) {
	day, err := queryDate(c, "date")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	if day.IsZero() {
		day = time.Now()
	}

	view, err := h.desks.Tally(c.Request.Context(), day)
	if err != nil {
		h.respondError(c, err, "Failed to load tally")
		return
	}

	c.JSON(http.StatusOK, view)
}

// submissionStats counts journaled attempts by outcome since a day, today by default
func (h *Handler) submissionStats(c *gin.Context) {
	since, err := queryDate(c, "since")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "since must be YYYY-MM-DD"})
		return
	}
	if since.IsZero() {
		y, m, d := time.Now().Date()
		since = time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	}

	counts, err := h.desks.SubmissionStats(c.Request.Context(), since)
	if err != nil {
		h.respondError(c, err, "Failed to load submission stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{"since": since.Format(dateLayout), "outcomes": counts})
}

func queryDate(c *gin.Context, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, raw, time.Local)
}

func queryDecimal(c *gin.Context, key string) (*decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
