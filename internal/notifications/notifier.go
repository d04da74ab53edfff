// Package notifications publishes post events to Redis channels.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/redis/go-redis/v9"
)

// Channel names.
const (
	PostsChannel        = "posts:events"
	groupChannelPattern = "posts:group:%s"
)

// Event types.
const (
	EventPostCreated = "post_created"
	EventPostEdited  = "post_edited"
)

// PostEvent is the JSON payload published for post changes.
type PostEvent struct {
	Type      string    `json:"type"`
	PostID    uint      `json:"post_id"`
	AuthorID  uint      `json:"author_id"`
	Author    string    `json:"author"`
	GroupSlug string    `json:"group_slug,omitempty"`
	Excerpt   string    `json:"excerpt"`
	At        time.Time `json:"at"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// GroupChannel returns the channel for events about posts in the group with slug.
func GroupChannel(slug string) string {
	return fmt.Sprintf(groupChannelPattern, slug)
}

// PublishPost publishes ev on PostsChannel and, when the post has a group, on
// that group's channel.
func (n *Notifier) PublishPost(ctx context.Context, eventType string, post *models.Post, author string, groupSlug string) error {
	if n == nil || n.rdb == nil {
		return nil
	}

	ev := PostEvent{
		Type:      eventType,
		PostID:    post.ID,
		AuthorID:  post.AuthorID,
		Author:    author,
		GroupSlug: groupSlug,
		Excerpt:   post.Excerpt(),
		At:        time.Now().UTC(),
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	if err := n.rdb.Publish(ctx, PostsChannel, payload).Err(); err != nil {
		return err
	}
	if groupSlug != "" {
		return n.rdb.Publish(ctx, GroupChannel(groupSlug), payload).Err()
	}
	return nil
}

// Subscribe listens on PostsChannel and calls onEvent for each decoded event
// until ctx is cancelled. Malformed payloads are logged and skipped.
func (n *Notifier) Subscribe(ctx context.Context, onEvent func(PostEvent)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, PostsChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev PostEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					middleware.Logger.Warn("dropping malformed post event", slog.String("error", err.Error()))
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in post event subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onEvent(ev)
				}()
			}
		}
	}()

	return nil
}
