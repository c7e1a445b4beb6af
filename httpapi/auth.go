package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authcore "github.com/pixelmint/authcore"
	"github.com/pixelmint/authcore/middleware"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Username string `json:"username"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type userView struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
}

func viewOf(user authcore.UserRecord) userView {
	return userView{ID: user.ID, Email: user.Email, Username: user.Username, Role: user.Role}
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed"})
		return
	}

	res, err := s.engine.Register(c.Request.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, authcore.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		case errors.Is(err, authcore.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		default:
			s.internalError(c, "register", err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":         viewOf(res.User),
		"accessToken":  res.AccessToken,
		"refreshToken": res.RefreshToken,
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed"})
		return
	}

	res, err := s.engine.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, authcore.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		s.internalError(c, "login", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         viewOf(res.User),
		"accessToken":  res.AccessToken,
		"refreshToken": res.RefreshToken,
	})
}

func (s *Server) handleRefresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed"})
		return
	}

	access, err := s.engine.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, authcore.ErrTokenInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		case errors.Is(err, authcore.ErrSessionNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token expired"})
		default:
			s.internalError(c, "refresh", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": access})
}

// handleLogout revokes the caller's sessions when a valid access token is
// presented; without one it still answers 200, matching the idempotent
// contract of logging out.
func (s *Server) handleLogout(c *gin.Context) {
	if claims, ok := middleware.ClaimsFromContext(c.Request.Context()); ok {
		if err := s.engine.Logout(c.Request.Context(), claims.Subject); err != nil {
			s.internalError(c, "logout", err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

func (s *Server) handleMe(c *gin.Context) {
	claims, _ := middleware.ClaimsFromContext(c.Request.Context())

	user, err := s.engine.GetUser(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, authcore.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		s.internalError(c, "me", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": viewOf(user)})
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	s.log.WithError(err).WithField("op", op).Error("internal error")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
