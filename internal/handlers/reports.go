package handlers

import (
	"fmt"
	"net/http"

	"task-manager/server/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type ReportHandler struct {
	reports services.ReportService
}

func NewReportHandler(reports services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func sendReport(c *gin.Context, report *services.Report) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.FileName))
	c.Data(http.StatusOK, services.SpreadsheetContentType, report.Content)
}

func (h *ReportHandler) ExportTasks(c *gin.Context) {
	report, err := h.reports.ExportTasks(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("task export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error exporting tasks", "error": err.Error()})
		return
	}
	sendReport(c, report)
}

func (h *ReportHandler) ExportUsers(c *gin.Context) {
	report, err := h.reports.ExportUsers(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("user export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error exporting users", "error": err.Error()})
		return
	}
	sendReport(c, report)
}
