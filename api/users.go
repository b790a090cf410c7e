package api

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/ovoloshin/blogd/user"
)

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Password2 string `json:"password_2" binding:"required"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Password != req.Password2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password fields didn't match"})
		return
	}

	u, err := s.users.Create(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, user.ErrDuplicateEmail) {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}
	if err != nil {
		log.Error("failed to register user", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": u.ID, "email": u.Email})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	u, err := s.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, user.ErrBadCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		log.Error("failed to authenticate user", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to authenticate"})
		return
	}

	token, err := s.jwt.GenerateToken(u.ID)
	if err != nil {
		log.Error("failed to generate token", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) handleLogout(c *gin.Context) {
	// Tokens are stateless; logout is advisory and succeeds for any
	// authenticated caller.
	c.JSON(http.StatusOK, gin.H{"message": "you successfully logged out"})
}

type passwordResetRequest struct {
	Email string `json:"email" binding:"required"`
}

func (s *Server) handlePasswordReset(c *gin.Context) {
	var req passwordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, err := s.users.CreateResetToken(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		log.Error("failed to create reset token", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create reset token"})
		return
	}
	if token != "" {
		// Mail delivery lives outside this service. The token stays out
		// of the log and the response; a mailer picks it up here once
		// one is attached.
		log.Info("password reset requested", "email", req.Email)
	}

	// Always accepted, so the endpoint can't be used to probe for
	// registered emails.
	c.JSON(http.StatusAccepted, gin.H{"message": "if the account exists, a reset link has been sent"})
}

type passwordResetConfirmRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

func (s *Server) handlePasswordResetConfirm(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}

	var req passwordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := s.users.ConsumeResetToken(c.Request.Context(), token, req.Password)
	if errors.Is(err, user.ErrTokenInvalid) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reset token is invalid or expired"})
		return
	}
	if err != nil {
		log.Error("failed to confirm password reset", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password has been reset"})
}

func (s *Server) handleGetProfile(c *gin.Context) {
	u, err := s.users.GetByID(c.Request.Context(), callerID(c))
	if err != nil {
		log.Error("failed to load profile", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}
	c.JSON(http.StatusOK, u)
}

type updateProfileRequest struct {
	ChatID   *string `json:"chat_id"`
	Password *string `json:"password"`
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ctx := c.Request.Context()
	id := callerID(c)

	if req.ChatID != nil {
		chatID := req.ChatID
		if *chatID == "" {
			chatID = nil // empty string clears the subscription
		}
		if err := s.users.SetChatID(ctx, id, chatID); err != nil {
			log.Error("failed to update chat id", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
			return
		}
	}

	if req.Password != nil {
		if len(*req.Password) < 8 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password too short"})
			return
		}
		if err := s.users.SetPassword(ctx, id, *req.Password); err != nil {
			log.Error("failed to change password", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
			return
		}
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		log.Error("failed to load profile", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}
	c.JSON(http.StatusOK, u)
}
