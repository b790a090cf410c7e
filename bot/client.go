package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNoArticles is returned by Latest when the blog is still empty.
var ErrNoArticles = errors.New("no articles published yet")

// Article mirrors the blog API's article payload, limited to the fields the
// gateway renders.
type Article struct {
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	PublicationDate time.Time `json:"publication_date"`
}

// Client talks to the blog HTTP API on behalf of chat users.
type Client struct {
	http *resty.Client
}

// NewClient creates an API client for the given base URL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string) *Client {
	c := resty.New()
	c.SetBaseURL(baseURL)
	c.SetTimeout(10 * time.Second)
	c.SetHeader("User-Agent", "blogd-bot/1.0")
	return &Client{http: c}
}

// Login exchanges a user's credentials for an API token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var result struct {
		Token string `json:"token"`
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&result).
		Post("/api/v1/users/login")
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK || result.Token == "" {
		return "", errors.New("login rejected")
	}
	return result.Token, nil
}

// Latest fetches the most recently published article.
func (c *Client) Latest(ctx context.Context) (*Article, error) {
	var article Article

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&article).
		Get("/api/v1/articles/latest")
	if err != nil {
		return nil, fmt.Errorf("latest-article request failed: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrNoArticles
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("latest-article request returned %d", resp.StatusCode())
	}
	return &article, nil
}

// SetChatID links the chat subscriber to the account behind the token.
func (c *Client) SetChatID(ctx context.Context, token, chatID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(map[string]string{"chat_id": chatID}).
		Patch("/api/v1/users/profile")
	if err != nil {
		return fmt.Errorf("profile update failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("profile update returned %d", resp.StatusCode())
	}
	return nil
}
