package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/synb/weather-backend/internal/logger"
	"github.com/synb/weather-backend/internal/services"
)

type ExportHandler struct {
	log           *logger.Logger
	exportService services.ExportService
}

func NewExportHandler(log *logger.Logger, exportService services.ExportService) *ExportHandler {
	return &ExportHandler{
		log:           log.With("handler", "ExportHandler"),
		exportService: exportService,
	}
}

// GET /export/excel?hours={hours}
// Export the last N hours (default 48) as an Excel workbook.
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	hours := queryInt(c, "hours", 48)

	path, err := h.exportService.ExportExcel(c.Request.Context(), nil, hours)
	if err != nil {
		h.respondExportError(c, "excel", err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

// GET /export/pdf?hours={hours}
// Generate the PDF report with the embedded chart.
func (h *ExportHandler) ExportPDF(c *gin.Context) {
	hours := queryInt(c, "hours", 48)

	path, err := h.exportService.ExportPDF(c.Request.Context(), nil, hours)
	if err != nil {
		h.respondExportError(c, "pdf", err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

func (h *ExportHandler) respondExportError(c *gin.Context, kind string, err error) {
	if errors.Is(err, services.ErrNoData) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no data available for export"})
		return
	}
	h.log.Error("Export failed", "kind", kind, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func queryInt(c *gin.Context, key string, defaultVal int) int {
	raw := c.Query(key)
	if raw == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}
	return i
}
