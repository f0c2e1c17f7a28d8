package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bug-tracker/internal/service"
)

// ReportsHandler exposes aggregate report endpoints.
type ReportsHandler struct {
	reports *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{reports: reportService}
}

// BugsByPriority GET /api/reports/bugs-by-priority.
func (h *ReportsHandler) BugsByPriority(c *fiber.Ctx) error {
	rows, err := h.reports.ByPriority(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

// BugsPerDay GET /api/reports/bugs-per-day.
func (h *ReportsHandler) BugsPerDay(c *fiber.Ctx) error {
	days := parseIntQuery(c.Query("days"), service.DefaultReportWindowDays)
	rows, err := h.reports.PerDay(c.Context(), days)
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

// DeveloperPerformance GET /api/reports/developer-performance.
func (h *ReportsHandler) DeveloperPerformance(c *fiber.Ctx) error {
	rows, err := h.reports.DeveloperPerformance(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

// SLAViolations GET /api/reports/sla-violations.
func (h *ReportsHandler) SLAViolations(c *fiber.Ctx) error {
	rows, err := h.reports.SLAViolations(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

// StatusSummary GET /api/reports/status-summary.
func (h *ReportsHandler) StatusSummary(c *fiber.Ctx) error {
	rows, err := h.reports.StatusSummary(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(rows)
}
