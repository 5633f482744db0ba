package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hub/internal/remote"
)

// handleFirstUser returns the single workspace user.
func (s *Server) handleFirstUser(c *gin.Context) {
	user, err := s.service.FirstUser(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, remote.UserResponse{User: user})
}

// handleJoinWaitlist records a signup; a repeated email is a 409.
func (s *Server) handleJoinWaitlist(c *gin.Context) {
	var req remote.WaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	entry, err := s.service.JoinWaitlist(c.Request.Context(), req.Email)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, remote.WaitlistResponse{Entry: entry})
}
