package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovoloshin/blogd/user"
)

// fakeBlogAPI simulates the blog HTTP API surface the gateway depends on.
type fakeBlogAPI struct {
	*httptest.Server

	mu         sync.Mutex
	article    *Article
	password   string
	subscribed map[string]string // token -> chat id
}

func newFakeBlogAPI(t *testing.T) *fakeBlogAPI {
	t.Helper()

	api := &fakeBlogAPI{
		password:   "valid-password",
		subscribed: make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/users/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Email, Password string }
		json.NewDecoder(r.Body).Decode(&req)
		if req.Password != api.password {
			http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-" + req.Email})
	})
	mux.HandleFunc("GET /api/v1/articles/latest", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		defer api.mu.Unlock()
		if api.article == nil {
			http.Error(w, `{"error":"no articles yet"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(api.article)
	})
	mux.HandleFunc("PATCH /api/v1/users/profile", func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
			return
		}
		var req struct {
			ChatID string `json:"chat_id"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		api.mu.Lock()
		api.subscribed[token] = req.ChatID
		api.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"email": "x"})
	})

	api.Server = httptest.NewServer(mux)
	t.Cleanup(api.Server.Close)
	return api
}

func newTestBot(t *testing.T) (*Bot, *fakeBlogAPI) {
	t.Helper()
	api := newFakeBlogAPI(t)
	return New(NewClient(api.URL)), api
}

func TestHandleMessage_StartAndHelp(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()

	assert.Contains(t, b.HandleMessage(ctx, "c1", "/start"), "Welcome")
	assert.Contains(t, b.HandleMessage(ctx, "c1", "/help"), "/subscribe")
	assert.Contains(t, b.HandleMessage(ctx, "c1", "gibberish"), "/help")
}

func TestHandleMessage_Latest(t *testing.T) {
	b, api := newTestBot(t)
	ctx := context.Background()

	assert.Equal(t, "No articles found.", b.HandleMessage(ctx, "c1", "/latest"))

	api.mu.Lock()
	api.article = &Article{
		Title:           "Breaking",
		Content:         "Details inside.",
		PublicationDate: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	api.mu.Unlock()

	reply := b.HandleMessage(ctx, "c1", "/latest")
	assert.Contains(t, reply, "Title: Breaking")
	assert.Contains(t, reply, "Content: Details inside.")
	assert.Contains(t, reply, "Published on 01 Mar 2024")
}

func TestHandleMessage_SubscribeFlow(t *testing.T) {
	b, api := newTestBot(t)
	ctx := context.Background()

	reply := b.HandleMessage(ctx, "chat-9", "/subscribe")
	assert.Contains(t, reply, "email")

	reply = b.HandleMessage(ctx, "chat-9", "alice@example.com")
	assert.Contains(t, reply, "password")

	reply = b.HandleMessage(ctx, "chat-9", "valid-password")
	assert.Contains(t, reply, "successfully subscribed")

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, "chat-9", api.subscribed["tok-alice@example.com"])
}

func TestHandleMessage_SubscribeBadPassword(t *testing.T) {
	b, api := newTestBot(t)
	ctx := context.Background()

	b.HandleMessage(ctx, "chat-9", "/subscribe")
	b.HandleMessage(ctx, "chat-9", "alice@example.com")
	reply := b.HandleMessage(ctx, "chat-9", "wrong-password")
	assert.Contains(t, reply, "check your credentials")

	// The flow is reset; plain text goes back to the idle hint
	assert.Contains(t, b.HandleMessage(ctx, "chat-9", "another-guess"), "/help")

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Empty(t, api.subscribed)
}

func TestHandleMessage_CommandInterruptsFlow(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()

	b.HandleMessage(ctx, "chat-9", "/subscribe")
	assert.Contains(t, b.HandleMessage(ctx, "chat-9", "/help"), "Available commands")

	// /help reset the session, so free text is no longer treated as email
	assert.Contains(t, b.HandleMessage(ctx, "chat-9", "alice@example.com"), "/help")
}

func TestHandleMessage_SessionsAreIndependent(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()

	b.HandleMessage(ctx, "chat-1", "/subscribe")
	assert.Contains(t, b.HandleMessage(ctx, "chat-2", "hello"), "/help",
		"one chat's flow must not leak into another")
}

func TestHandleMessage_ConcurrentMessagesSameChat(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()

	// Webhook deliveries can land in parallel for one chat. Each message
	// must advance the subscribe flow by exactly one step, however the
	// goroutines interleave.
	const workers = 8
	for i := 0; i < 25; i++ {
		b.HandleMessage(ctx, "chat-7", "/subscribe")

		replies := make([]string, workers)
		start := make(chan struct{})
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				<-start
				replies[w] = b.HandleMessage(ctx, "chat-7", "alice@example.com")
			}(w)
		}
		close(start)
		wg.Wait()

		accepted := 0
		for _, reply := range replies {
			if strings.Contains(reply, "send your password") {
				accepted++
			}
		}
		assert.Equal(t, 1, accepted, "only one message may be taken as the email")

		b.resetSession("chat-7")
	}
}

type recordingSender struct {
	mu    sync.Mutex
	sent  []outboundMessage
	fail  map[string]bool // chat ids that error out
	calls int
}

func (r *recordingSender) Send(ctx context.Context, chatID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.fail[chatID] {
		return assert.AnError
	}
	r.sent = append(r.sent, outboundMessage{ChatID: chatID, Text: text})
	return nil
}

func TestNotifier_FansOutToAllSubscribers(t *testing.T) {
	sender := &recordingSender{}
	notifier := NewNotifier(sender)

	chat1, chat2 := "chat-1", "chat-2"
	notifier.NotifyNewArticle(context.Background(), "Fresh Post", []user.User{
		{ID: 1, ChatID: &chat1},
		{ID: 2, ChatID: &chat2},
		{ID: 3, ChatID: nil}, // not subscribed, skipped
	})

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "chat-1", sender.sent[0].ChatID)
	assert.Contains(t, sender.sent[0].Text, "Fresh Post")
	assert.Equal(t, "chat-2", sender.sent[1].ChatID)
}

func TestNotifier_FailureDoesNotBlockOthers(t *testing.T) {
	sender := &recordingSender{fail: map[string]bool{"chat-1": true}}
	notifier := NewNotifier(sender)

	chat1, chat2 := "chat-1", "chat-2"
	notifier.NotifyNewArticle(context.Background(), "Post", []user.User{
		{ID: 1, ChatID: &chat1},
		{ID: 2, ChatID: &chat2},
	})

	assert.Equal(t, 2, sender.calls)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "chat-2", sender.sent[0].ChatID)
}

func TestWebhookSender_Send(t *testing.T) {
	var got outboundMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewWebhookSender(srv.URL)
	require.NoError(t, sender.Send(context.Background(), "chat-5", "hello"))
	assert.Equal(t, "chat-5", got.ChatID)
	assert.Equal(t, "hello", got.Text)
}

func TestWebhookSender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := NewWebhookSender(srv.URL)
	assert.Error(t, sender.Send(context.Background(), "chat-5", "hello"))
}

func TestRouter_Webhook(t *testing.T) {
	gin.SetMode(gin.TestMode)
	b, _ := newTestBot(t)
	router := b.Router()

	body, _ := json.Marshal(inboundMessage{ChatID: "chat-3", Text: "/help"})
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var reply outboundMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Equal(t, "chat-3", reply.ChatID)
	assert.Contains(t, reply.Text, "Available commands")

	// Malformed payloads are rejected
	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{"))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
