// Package bot implements the chat gateway: a webhook front-end that lets
// subscribers query the blog and receive push notifications for new
// articles.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// Conversation states for the two-step subscribe flow.
const (
	stateIdle = iota
	stateAwaitEmail
	stateAwaitPassword
)

type session struct {
	state int
	email string
}

// Bot answers inbound chat messages. Subscribe sessions live in memory and
// are keyed by chat id; everything durable stays in the blog API. Sessions
// are stored by value and every state transition happens under the mutex,
// so concurrent messages for one chat id never touch shared session fields.
type Bot struct {
	client *Client

	mu       sync.Mutex
	sessions map[string]session
}

// New creates a bot backed by the given blog API client.
func New(client *Client) *Bot {
	return &Bot{
		client:   client,
		sessions: make(map[string]session),
	}
}

const helpText = "Available commands:\n" +
	"/start - start communication with the bot\n" +
	"/help - show the list of commands\n" +
	"/latest - display the latest article\n" +
	"/subscribe - subscribe to notifications from the blog"

// HandleMessage processes one inbound message and returns the reply text.
func (b *Bot) HandleMessage(ctx context.Context, chatID, text string) string {
	switch text {
	case "/start":
		b.resetSession(chatID)
		return "Welcome to the Blog Bot, with the newest articles from all the world.\nSend /help to see what I can do."
	case "/help":
		b.resetSession(chatID)
		return helpText
	case "/latest":
		b.resetSession(chatID)
		return b.latest(ctx)
	case "/subscribe":
		b.setSession(chatID, session{state: stateAwaitEmail})
		return "Let's subscribe.\nFirst, send your email."
	}

	sess := b.advanceSession(chatID, text)
	switch sess.state {
	case stateAwaitEmail:
		return "Now send your password."
	case stateAwaitPassword:
		return b.finishSubscribe(ctx, chatID, sess.email, text)
	default:
		return "I didn't understand that. Send /help for the list of commands."
	}
}

func (b *Bot) latest(ctx context.Context) string {
	article, err := b.client.Latest(ctx)
	if errors.Is(err, ErrNoArticles) {
		return "No articles found."
	}
	if err != nil {
		log.Warn("failed to fetch latest article", "err", err)
		return "Failed to reach the blog. Please try again."
	}
	return fmt.Sprintf("Title: %s\nContent: %s\nPublished on %s",
		article.Title, article.Content,
		article.PublicationDate.Format("02 Jan 2006 15:04"))
}

func (b *Bot) finishSubscribe(ctx context.Context, chatID, email, password string) string {
	token, err := b.client.Login(ctx, email, password)
	if err != nil {
		log.Warn("subscribe login failed", "chat_id", chatID, "err", err)
		return "Could not sign in to the blog.\nPlease check your credentials and send /subscribe to try again."
	}

	if err := b.client.SetChatID(ctx, token, chatID); err != nil {
		log.Warn("subscribe profile update failed", "chat_id", chatID, "err", err)
		return "Something went wrong. Please try again."
	}
	return "You're successfully subscribed."
}

// advanceSession applies one subscribe-flow transition atomically and
// returns the session as it was before the message arrived. The email is
// recorded in the awaiting-password step; the password message clears the
// session, so the caller finishes the subscription with the returned copy
// while a competing message for the same chat starts from idle.
func (b *Bot) advanceSession(chatID, text string) session {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev := b.sessions[chatID]
	switch prev.state {
	case stateAwaitEmail:
		b.sessions[chatID] = session{state: stateAwaitPassword, email: text}
	case stateAwaitPassword:
		delete(b.sessions, chatID)
	}
	return prev
}

func (b *Bot) setSession(chatID string, sess session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[chatID] = sess
}

func (b *Bot) resetSession(chatID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, chatID)
}
