package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type projectRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// handleListProjects returns all available projects.
func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.service.ListProjects(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, projects)
}

// handleCreateProject creates a new project entity.
func (s *Server) handleCreateProject(c *gin.Context) {
	var req projectRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}

	project, err := s.service.CreateProject(c.Request.Context(), req.Name, req.Color)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, project)
}

// handleUpdateProject renames or recolors an existing project.
func (s *Server) handleUpdateProject(c *gin.Context) {
	var req projectRequest
	if err := bindJSON(c, &req); err != nil {
		s.respondError(c, err)
		return
	}

	project, err := s.service.UpdateProject(c.Request.Context(), c.Param("id"), req.Name, req.Color)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, project)
}

// handleDeleteProject removes a project that no task references.
func (s *Server) handleDeleteProject(c *gin.Context) {
	if err := s.service.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleListProjectTasks is the today view of one project.
func (s *Server) handleListProjectTasks(c *gin.Context) {
	day, err := queryDayContext(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	list, err := s.service.ProjectTasks(c.Request.Context(), c.Param("id"), day.query())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondDayList(c, list)
}
