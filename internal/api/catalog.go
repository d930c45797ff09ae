package api

import (
	"io"
	"net/http"
	"strconv"

	"invoice-desk/internal/catalog"
	"invoice-desk/internal/models"
	"invoice-desk/internal/service"

	"github.com/gin-gonic/gin"
)

const maxImportSize = 5 << 20

func (h *Handler) getCatalog(c *gin.Context) {
	q := service.CatalogQuery{
		Search: c.Query("search"),
		Filter: c.Query("filter"),
	}

	if raw := c.Query("stock"); raw != "" {
		q.Stock = catalog.ParseStockLevel(raw)
	}

	var ok bool
	if q.Page, ok = queryInt(c, "page"); !ok {
		return
	}
	if q.PageSize, ok = queryInt(c, "page_size"); !ok {
		return
	}

	page, err := h.desks.Catalog(c.Request.Context(), deskFrom(c), q)
	if err != nil {
		h.respondError(c, err, "Failed to load catalog")
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handler) reloadCatalog(c *gin.Context) {
	items, err := h.desks.ReloadCatalog(c.Request.Context(), deskFrom(c))
	if err != nil {
		if len(items) == 0 {
			h.respondError(c, err, "Failed to load catalog")
			return
		}
		_, message := classify(err, "Catalog could not be refreshed; showing saved items")
		c.JSON(http.StatusOK, gin.H{"items": items, "warning": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) addItem(c *gin.Context) {
	var in models.ProductInput
	if !bindJSON(c, &in) {
		return
	}

	item, merged, err := h.desks.AddOrMergeItem(c.Request.Context(), deskFrom(c), in)
	if err != nil {
		h.respondError(c, err, "Failed to save item")
		return
	}

	status := http.StatusCreated
	if merged {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"item": item, "merged": merged})
}

func (h *Handler) updateItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var in models.ProductInput
	if !bindJSON(c, &in) {
		return
	}

	item, err := h.desks.UpdateItem(c.Request.Context(), deskFrom(c), id, in)
	if err != nil {
		h.respondError(c, err, "Failed to update item")
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *Handler) deleteItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.desks.DeleteItem(c.Request.Context(), deskFrom(c), id); err != nil {
		h.respondError(c, err, "Failed to delete item")
		return
	}

	c.Status(http.StatusNoContent)
}

// importItems accepts the CSV either as a multipart "file" field or as the raw body
func (h *Handler) importItems(c *gin.Context) {
	var src io.Reader

	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file"})
			return
		}
		defer f.Close()
		src = f
	} else {
		src = c.Request.Body
	}

	result, err := h.desks.ImportCSV(c.Request.Context(), deskFrom(c), io.LimitReader(src, maxImportSize))
	if err != nil {
		h.respondError(c, err, "Failed to import items")
		return
	}

	c.JSON(http.StatusOK, result)
}

// queryInt reads an optional positive integer query parameter
func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + key})
		return 0, false
	}
	return n, true
}
