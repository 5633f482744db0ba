package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves the compiled frontend from the configured directory.
// Unknown paths outside /api fall back to index.html for client routing;
// unknown /api paths always get a JSON 404.
func (s *Server) mountStatic() {
	index := s.frontendIndex()

	s.engine.NoRoute(func(c *gin.Context) {
		if index == "" || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
			return
		}
		c.File(index)
	})
	if index == "" {
		return
	}

	s.engine.GET("/", func(c *gin.Context) { c.File(index) })
	for route, name := range map[string]string{"/assets": "assets", "/icons": "icons"} {
		if dir := filepath.Join(s.staticDir, name); isDir(dir) {
			s.engine.StaticFS(route, gin.Dir(dir, false))
		}
	}
	if favicon := filepath.Join(s.staticDir, "favicon.ico"); fileExists(favicon) {
		s.engine.StaticFile("/favicon.ico", favicon)
	}
	s.logger.Info().Str("path", s.staticDir).Msg("serving frontend")
}

// frontendIndex returns the index.html path, or "" in API only mode.
func (s *Server) frontendIndex() string {
	if s.staticDir == "" {
		s.logger.Warn().Msg("static directory not configured; API only mode")
		return ""
	}
	if !isDir(s.staticDir) {
		s.logger.Warn().Err(fmt.Errorf("%s is not a directory", s.staticDir)).Msg("static directory missing; API only mode")
		return ""
	}
	index := filepath.Join(s.staticDir, "index.html")
	if !fileExists(index) {
		s.logger.Warn().Str("path", index).Msg("index.html not found; API only mode")
		return ""
	}
	return index
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
