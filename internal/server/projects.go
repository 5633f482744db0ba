package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hub/internal/models"
	"hub/internal/remote"
)

// handleListProjects returns the active projects of the user in ?user_id.
func (s *Server) handleListProjects(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("user_id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	projects, err := s.service.ListActiveProjects(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	respondSuccess(c, http.StatusOK, remote.ProjectsResponse{Projects: projects})
}

// handleCreateProject persists a draft for the given owner.
func (s *Server) handleCreateProject(c *gin.Context) {
	var req remote.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	project, err := s.service.InsertProject(c.Request.Context(), req.UserID, req.ProjectDraft)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, remote.ProjectResponse{Project: project})
}

// handleUpdateProject applies a partial update. Archiving and favoriting
// go through the same patch.
func (s *Server) handleUpdateProject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var patch models.ProjectPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if patch.Empty() {
		s.fail(c, fmt.Errorf("empty project patch: %w", models.ErrInvalid))
		return
	}

	project, err := s.service.UpdateProject(c.Request.Context(), id, patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, remote.ProjectResponse{Project: project})
}

// handleDeleteProject soft-deletes a project.
func (s *Server) handleDeleteProject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.service.SoftDeleteProject(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) handleListStatuses(c *gin.Context) {
	statuses, err := s.service.ListProjectStatuses(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, remote.StatusesResponse{Statuses: statuses})
}

func (s *Server) handleFirstStatus(c *gin.Context) {
	status, err := s.service.FirstProjectStatus(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, remote.StatusResponse{Status: status})
}
