package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/ovoloshin/blogd/blog"
)

type articleRequest struct {
	Title   string `json:"title" binding:"required,max=255"`
	Content string `json:"content" binding:"required"`
}

func (s *Server) handleListArticles(c *gin.Context) {
	articles, err := s.articles.List(c.Request.Context())
	if err != nil {
		log.Error("failed to list articles", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list articles"})
		return
	}
	if articles == nil {
		articles = []blog.Article{}
	}
	c.JSON(http.StatusOK, articles)
}

func (s *Server) handleLatestArticle(c *gin.Context) {
	article, err := s.articles.Latest(c.Request.Context())
	if errors.Is(err, blog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no articles yet"})
		return
	}
	if err != nil {
		log.Error("failed to get latest article", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get latest article"})
		return
	}
	c.JSON(http.StatusOK, article)
}

func (s *Server) handleGetArticle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	article, err := s.articles.Get(c.Request.Context(), id)
	if errors.Is(err, blog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	if err != nil {
		log.Error("failed to get article", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get article"})
		return
	}
	c.JSON(http.StatusOK, article)
}

func (s *Server) handleCreateArticle(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ctx := c.Request.Context()
	article, err := s.articles.Create(ctx, req.Title, req.Content, callerID(c))
	if err != nil {
		log.Error("failed to create article", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create article"})
		return
	}

	if s.notifier != nil {
		subscribers, err := s.users.Subscribers(ctx)
		if err != nil {
			log.Error("failed to list subscribers for notification", "err", err)
		} else if len(subscribers) > 0 {
			s.notifier.NotifyNewArticle(ctx, article.Title, subscribers)
		}
	}

	c.JSON(http.StatusCreated, article)
}

func (s *Server) handleUpdateArticle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	article, err := s.articles.Update(c.Request.Context(), id, req.Title, req.Content)
	if errors.Is(err, blog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	if err != nil {
		log.Error("failed to update article", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update article"})
		return
	}
	c.JSON(http.StatusOK, article)
}

func (s *Server) handleDeleteArticle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	err = s.articles.Delete(c.Request.Context(), id)
	if errors.Is(err, blog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	if err != nil {
		log.Error("failed to delete article", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete article"})
		return
	}
	c.Status(http.StatusNoContent)
}
