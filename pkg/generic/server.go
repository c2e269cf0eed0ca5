package generic

import "github.com/gin-gonic/gin"

// Server bundles the gin engine with its listen port and the verbs the
// instrument API answers to.
type Server struct {
	Router  *gin.Engine
	Port    string
	Methods []string
}
