package httpapi

import (
	"github.com/gin-gonic/gin"
	authcore "github.com/pixelmint/authcore"
	"github.com/pixelmint/authcore/middleware"
	"github.com/sirupsen/logrus"
)

// Server carries the handler dependencies.
type Server struct {
	engine *authcore.Engine
	log    logrus.FieldLogger
}

// NewRouter wires all routes onto a fresh gin engine.
func NewRouter(engine *authcore.Engine, log logrus.FieldLogger) *gin.Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{engine: engine, log: log}

	r := gin.New()
	r.Use(gin.Recovery())

	codec := engine.Codec()

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", s.handleRegister)
		auth.POST("/login", s.handleLogin)
		auth.POST("/refresh", s.handleRefresh)
		auth.POST("/logout", middleware.OptionalGin(codec), s.handleLogout)
		auth.GET("/me", middleware.RequireGin(codec), s.handleMe)
	}

	quota := r.Group("/api", clientIP, middleware.OptionalGin(codec))
	{
		quota.GET("/rate-limit", s.handleCheckQuota)
		quota.POST("/rate-limit/consume", s.handleRecordUsage)
	}

	return r
}

// clientIP threads the caller's network address through the request context
// so quota identity resolution works the same under net/http and gin.
func clientIP(c *gin.Context) {
	c.Request = c.Request.WithContext(authcore.WithClientIP(c.Request.Context(), c.ClientIP()))
	c.Next()
}

// identity resolves the quota identifier for a request: the subject ID when
// authenticated, the caller network address otherwise.
func (s *Server) identity(c *gin.Context) (string, bool) {
	if claims, ok := middleware.ClaimsFromContext(c.Request.Context()); ok {
		return claims.Subject, true
	}
	return authcore.ClientIPFromContext(c.Request.Context()), false
}
