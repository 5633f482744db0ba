package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hub/internal/models"
	"hub/internal/remote"
)

// handleListColumns returns a project's columns by order_index.
func (s *Server) handleListColumns(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	columns, err := s.service.ListColumns(c.Request.Context(), projectID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if columns == nil {
		columns = []models.KanbanColumn{}
	}
	respondSuccess(c, http.StatusOK, remote.ColumnsResponse{Columns: columns})
}

// handleCreateColumn adds a column to the project in the path.
func (s *Server) handleCreateColumn(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var col models.KanbanColumn
	if err := c.ShouldBindJSON(&col); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	col.ProjectID = projectID

	created, err := s.service.InsertColumn(c.Request.Context(), col)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, remote.ColumnResponse{Column: created})
}

func (s *Server) handleUpdateColumn(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch models.ColumnPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	col, err := s.service.UpdateColumn(c.Request.Context(), id, patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, remote.ColumnResponse{Column: col})
}

// handleDeleteColumn removes a column together with its tasks.
func (s *Server) handleDeleteColumn(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.service.DeleteColumn(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleReorderColumns sets order_index of each listed column to its
// position in the body.
func (s *Server) handleReorderColumns(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req remote.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := s.service.ReorderColumns(c.Request.Context(), projectID, req.IDs); err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "reordered"})
}

func (s *Server) handleReorderTasks(c *gin.Context) {
	columnID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req remote.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := s.service.ReorderTasks(c.Request.Context(), columnID, req.IDs); err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "reordered"})
}

// handleListTasks returns every task of a project, across columns.
func (s *Server) handleListTasks(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	tasks, err := s.service.ListTasks(c.Request.Context(), projectID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	respondSuccess(c, http.StatusOK, remote.TasksResponse{Tasks: tasks})
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var task models.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	created, err := s.service.InsertTask(c.Request.Context(), task)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, remote.TaskResponse{Task: created})
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch models.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	task, err := s.service.UpdateTask(c.Request.Context(), id, patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, remote.TaskResponse{Task: task})
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.service.DeleteTask(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleMoveTask moves a task to another column and position.
func (s *Server) handleMoveTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req remote.MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	task, err := s.service.MoveTask(c.Request.Context(), id, req.ColumnID, req.OrderIndex)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, remote.TaskResponse{Task: task})
}
