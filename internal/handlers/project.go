package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/shiftledger/internal/middleware"
	"github.com/huangang/shiftledger/internal/services"
	"github.com/huangang/shiftledger/pkg/response"
)

type ProjectHandler struct {
	projectService *services.ProjectService
	userService    *services.UserService
}

func NewProjectHandler(projectService *services.ProjectService, userService *services.UserService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, userService: userService}
}

// ListMine returns the projects the caller belongs to
// GET /api/projects
func (h *ProjectHandler) ListMine(c *gin.Context) {
	projects, err := h.projectService.ListByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, projects)
}

// GetByID returns a project. Employees only see their own projects.
// GET /api/projects/:id, GET /api/admin/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if !middleware.IsAdmin(c) {
		member, err := h.projectService.IsMember(c.Request.Context(), id, middleware.GetUserID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		if !member {
			response.NotFound(c, "project not found")
			return
		}
	}

	project, err := h.projectService.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, project)
}

// List returns paginated projects
// GET /api/admin/projects
func (h *ProjectHandler) List(c *gin.Context) {
	var req services.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.projectService.List(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Paged(c, resp.Items, resp.Total, resp.Page, resp.PageSize)
}

// Create creates a new project
// POST /api/admin/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), &req, middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, project)
}

// UpdateStatus changes a project's status
// PUT /api/admin/projects/:id/status
func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.UpdateStatus(c.Request.Context(), id, req.Status, middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, project)
}

// ListMembers returns a project's members
// GET /api/admin/projects/:id/members
func (h *ProjectHandler) ListMembers(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	members, err := h.projectService.ListMembers(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, members)
}

// AddMember puts an employee on a project
// POST /api/admin/projects/:id/members
func (h *ProjectHandler) AddMember(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req services.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.projectService.AddMember(c.Request.Context(), id, &req, middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, member)
}

// RemoveMember takes an employee off a project
// DELETE /api/admin/projects/:id/members/:memberID
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	memberID, ok := paramID(c, "memberID")
	if !ok {
		return
	}

	if err := h.projectService.RemoveMember(c.Request.Context(), id, memberID, middleware.GetUserID(c)); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "member removed"})
}

// ListNonMembers returns employees who could be added
// GET /api/admin/projects/:id/non-members
func (h *ProjectHandler) ListNonMembers(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	users, err := h.userService.ListNonMembers(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, users)
}
