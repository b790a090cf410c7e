// Package api exposes the blog platform over HTTP: article CRUD and user
// account management, with JWT bearer auth on everything that writes.
package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/ovoloshin/blogd/blog"
	"github.com/ovoloshin/blogd/user"
)

// Notifier pushes a new-article announcement to chat subscribers. Failures
// are the notifier's to log; article creation never depends on delivery.
type Notifier interface {
	NotifyNewArticle(ctx context.Context, title string, subscribers []user.User)
}

// Server wires stores and auth into a gin router.
type Server struct {
	articles *blog.ArticleStore
	users    *user.Store
	jwt      *JWTManager
	notifier Notifier
}

// NewServer creates the API server. notifier may be nil when no chat
// gateway is configured.
func NewServer(articles *blog.ArticleStore, users *user.Store, jwt *JWTManager, notifier Notifier) *Server {
	return &Server{
		articles: articles,
		users:    users,
		jwt:      jwt,
		notifier: notifier,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()

	v1 := router.Group("/api/v1")

	users := v1.Group("/users")
	users.POST("/register", s.handleRegister)
	users.POST("/login", s.handleLogin)
	users.POST("/password/reset", s.handlePasswordReset)
	users.POST("/password/reset/confirm", s.handlePasswordResetConfirm)

	authed := users.Group("", s.jwt.RequireAuth())
	authed.GET("/profile", s.handleGetProfile)
	authed.PATCH("/profile", s.handleUpdateProfile)
	authed.POST("/logout", s.handleLogout)

	articles := v1.Group("/articles")
	articles.GET("", s.handleListArticles)
	articles.GET("/latest", s.handleLatestArticle)
	articles.GET("/:id", s.handleGetArticle)

	writes := articles.Group("", s.jwt.RequireAuth())
	writes.POST("", s.handleCreateArticle)
	writes.PUT("/:id", s.handleUpdateArticle)
	writes.DELETE("/:id", s.handleDeleteArticle)

	return router
}
