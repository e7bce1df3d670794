package server

import (
	"github.com/gin-gonic/gin"
)

// VersionInfo 版本信息响应
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
}

func (s *HTTPGinServer) handleVersion(c *gin.Context) {
	s.success(c, s.version)
}
