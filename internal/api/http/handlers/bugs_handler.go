package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bug-tracker/internal/api/dto"
	"github.com/spec-kit/bug-tracker/internal/auth"
	"github.com/spec-kit/bug-tracker/internal/domain"
	"github.com/spec-kit/bug-tracker/internal/repository"
	"github.com/spec-kit/bug-tracker/internal/service"
	apperrors "github.com/spec-kit/bug-tracker/pkg/util"
)

// BugsHandler manages bug endpoints.
type BugsHandler struct {
	service *service.BugService
}

// NewBugsHandler constructs handler.
func NewBugsHandler(bugService *service.BugService) *BugsHandler {
	return &BugsHandler{service: bugService}
}

// ListBugs GET /api/bugs.
func (h *BugsHandler) ListBugs(c *fiber.Ctx) error {
	filter, page, limit, err := parseBugQuery(c)
	if err != nil {
		return err
	}
	bugs, total, err := h.service.List(c.Context(), filter)
	if err != nil {
		return err
	}

	items := make([]dto.BugSummary, 0, len(bugs))
	for i := range bugs {
		items = append(items, bugSummary(&bugs[i]))
	}
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return c.JSON(dto.BugListResponse{
		Bugs: items,
		Pagination: dto.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	})
}

// GetBug GET /api/bugs/:id.
func (h *BugsHandler) GetBug(c *fiber.Ctx) error {
	bug, comments, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(bugDetail(bug, comments))
}

// CreateBug POST /api/bugs.
func (h *BugsHandler) CreateBug(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateBugRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateCreateBug(req); err != nil {
		return err
	}

	bug, err := h.service.Create(c.Context(), actor.ID, service.BugCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Severity:    req.Severity,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(bugToSummary(bug))
}

// UpdateBug PUT /api/bugs/:id.
func (h *BugsHandler) UpdateBug(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateBugRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateUpdateBug(req); err != nil {
		return err
	}

	patch := service.BugPatch{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Severity:    req.Severity,
		Status:      req.Status,
		Assignee:    req.AssignedTo.Value,
		AssigneeSet: req.AssignedTo.Present,
	}
	bug, err := h.service.Update(c.Context(), c.Params("id"), actor.ID, patch)
	if err != nil {
		return err
	}
	return c.JSON(bugToSummary(bug))
}

// DeleteBug DELETE /api/bugs/:id.
func (h *BugsHandler) DeleteBug(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Bug deleted successfully"})
}

// AddComment POST /api/bugs/:id/comments.
func (h *BugsHandler) AddComment(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Comment) == "" {
		return apperrors.NewValidationError("comment required", nil)
	}

	comment, err := h.service.AddComment(c.Context(), c.Params("id"), actor.ID, req.Comment)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(commentResponse(comment))
}

// ListHistory GET /api/bugs/:id/history.
func (h *BugsHandler) ListHistory(c *fiber.Ctx) error {
	entries, err := h.service.ListHistory(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.HistoryEntryResponse{
			ID:           entry.ID,
			UserID:       entry.UserID,
			FieldChanged: entry.Field,
			OldValue:     entry.OldValue,
			NewValue:     entry.NewValue,
			CreatedAt:    entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"history": items})
}

func parseBugQuery(c *fiber.Ctx) (repository.BugFilter, int, int, error) {
	filter := repository.BugFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.BugStatus(statusStr)
		if !domain.ValidBugStatus(status) {
			return filter, 0, 0, apperrors.NewValidationError("invalid status", map[string]any{"status": statusStr})
		}
		filter.Status = &status
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		priority := domain.BugPriority(priorityStr)
		if !domain.ValidBugPriority(priority) {
			return filter, 0, 0, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priorityStr})
		}
		filter.Priority = &priority
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		filter.AssigneeID = &assignee
	}

	page := parseIntQuery(c.Query("page"), 1)
	limit := parseIntQuery(c.Query("limit"), repository.DefaultPageSize)
	filter.Page = page
	filter.PageSize = limit
	return filter, page, limit, nil
}

func parseIntQuery(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func validateCreateBug(req dto.CreateBugRequest) error {
	if len(strings.TrimSpace(req.Title)) < 3 {
		return apperrors.NewValidationError("title must be at least 3 characters", nil)
	}
	if len(strings.TrimSpace(req.Description)) < 10 {
		return apperrors.NewValidationError("description must be at least 10 characters", nil)
	}
	if req.Priority != nil && !domain.ValidBugPriority(*req.Priority) {
		return apperrors.NewValidationError("invalid priority", nil)
	}
	if req.Severity != nil && !domain.ValidBugSeverity(*req.Severity) {
		return apperrors.NewValidationError("invalid severity", nil)
	}
	return nil
}

func validateUpdateBug(req dto.UpdateBugRequest) error {
	if req.Title != nil && len(strings.TrimSpace(*req.Title)) < 3 {
		return apperrors.NewValidationError("title must be at least 3 characters", nil)
	}
	if req.Description != nil && len(strings.TrimSpace(*req.Description)) < 10 {
		return apperrors.NewValidationError("description must be at least 10 characters", nil)
	}
	if req.Priority != nil && !domain.ValidBugPriority(*req.Priority) {
		return apperrors.NewValidationError("invalid priority", nil)
	}
	if req.Severity != nil && !domain.ValidBugSeverity(*req.Severity) {
		return apperrors.NewValidationError("invalid severity", nil)
	}
	if req.Status != nil && !domain.ValidBugStatus(*req.Status) {
		return apperrors.NewValidationError("invalid status", nil)
	}
	return nil
}

func bugSummary(bug *domain.BugWithNames) dto.BugSummary {
	summary := bugToSummary(&bug.Bug)
	summary.ReporterName = bug.ReporterName
	summary.AssigneeName = bug.AssigneeName
	return summary
}

func bugToSummary(bug *domain.Bug) dto.BugSummary {
	return dto.BugSummary{
		ID:         bug.ID,
		Title:      bug.Title,
		Priority:   bug.Priority,
		Severity:   bug.Severity,
		Status:     bug.Status,
		ReporterID: bug.ReporterID,
		AssignedTo: bug.AssigneeID,
		CreatedAt:  bug.CreatedAt,
		UpdatedAt:  bug.UpdatedAt,
		ResolvedAt: bug.ResolvedAt,
	}
}

func bugDetail(bug *domain.BugWithNames, comments []domain.CommentWithAuthor) dto.BugDetailResponse {
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return dto.BugDetailResponse{
		BugSummary:  bugSummary(bug),
		Description: bug.Description,
		Comments:    items,
	}
}

func commentResponse(comment *domain.CommentWithAuthor) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        comment.ID,
		BugID:     comment.BugID,
		UserID:    comment.AuthorID,
		UserName:  comment.AuthorName,
		Comment:   comment.Body,
		CreatedAt: comment.CreatedAt,
	}
}
