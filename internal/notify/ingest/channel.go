// internal/notify/ingest/channel.go

// Package ingest maintains the live push subscription that feeds the
// notification store. Exactly one subscription exists per authenticated
// session; inbound payloads are normalized and validated before admission,
// and anything malformed is logged and dropped.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	apperrors "notification-pipeline/internal/common/errors"
	"notification-pipeline/internal/common/logger"
	"notification-pipeline/internal/common/metrics"
	"notification-pipeline/internal/notify/store"

	"notification-pipeline/internal/models"

	"github.com/redis/go-redis/v9"
)

// Credential identifies the authenticated session. It is resolved lazily on
// every (re)connect attempt so a refreshed token is honored on reconnect.
type Credential struct {
	UserID string
	Token  string
}

// CredentialFunc resolves the current session credential.
type CredentialFunc func(ctx context.Context) (Credential, error)

// Subscriber is the slice of the redis wrapper the channel needs.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

type Config struct {
	ChannelPrefix string
	// ReconnectSchedule is a bounded non-uniform backoff: immediate, 2s, 5s,
	// 10s by default, then no further scheduled retries.
	ReconnectSchedule []time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		ChannelPrefix:     "ReceiveNotification",
		ReconnectSchedule: []time.Duration{0, 2 * time.Second, 5 * time.Second, 10 * time.Second},
	}
}

// Channel is the realtime ingestion channel.
type Channel struct {
	config *Config
	subber Subscriber
	creds  CredentialFunc
	store  store.IngestWriter
	logger logger.Logger
	errs   *apperrors.Handler

	mu        sync.Mutex
	connected bool
	sub       *redis.PubSub
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewChannel(cfg *Config, subber Subscriber, creds CredentialFunc, writer store.IngestWriter, log logger.Logger) *Channel {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	chLog := log.WithFields(map[string]interface{}{"component": "ingest"})
	return &Channel{
		config: cfg,
		subber: subber,
		creds:  creds,
		store:  writer,
		logger: chLog,
		errs:   apperrors.NewHandlerWithCounter(chLog, metrics.ErrorCounter{}),
	}
}

// Connected reports whether a live subscription exists. StartConnection uses
// it for its idempotency decision; it is updated on every lifecycle
// transition.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// StartConnection opens the subscription. Idempotent: when already connected
// it returns immediately without creating a duplicate subscription.
func (c *Channel) StartConnection(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	sub, name, err := c.connect(ctx)
	if err != nil {
		c.errs.Handle("ingest", err)
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.sub = sub
	c.cancel = cancel
	c.connected = true
	c.done = make(chan struct{})

	c.logger.Info("push channel connected", map[string]interface{}{"channel": name})
	go c.receiveLoop(runCtx, sub, name, c.done)

	return nil
}

// StopConnection tears the subscription down. Teardown failures are logged,
// not surfaced.
func (c *Channel) StopConnection() {
	c.mu.Lock()
	sub := c.sub
	cancel := c.cancel
	done := c.done
	c.sub = nil
	c.cancel = nil
	c.connected = false
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sub != nil {
		if err := sub.Close(); err != nil {
			c.logger.WithError(err).Warn("push channel close failed", nil)
		}
	}
	if done != nil {
		<-done
	}
}

// connect resolves a fresh credential and opens the per-user subscription.
func (c *Channel) connect(ctx context.Context) (*redis.PubSub, string, error) {
	cred, err := c.creds(ctx)
	if err != nil {
		return nil, "", apperrors.NewCredentialResolveFailedError(err)
	}

	name := fmt.Sprintf("%s:%s", c.config.ChannelPrefix, cred.UserID)
	sub := c.subber.Subscribe(ctx, name)

	// Confirm the subscription before reporting connected.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, "", apperrors.NewTransportSubscribeFailedError(name, err)
	}

	return sub, name, nil
}

func (c *Channel) receiveLoop(ctx context.Context, sub *redis.PubSub, name string, done chan struct{}) {
	defer close(done)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				c.setConnected(false)
				c.errs.Handle("ingest", apperrors.NewTransportClosedError(name))

				next, nextName, ok := c.reconnect(ctx)
				if !ok {
					// Schedule exhausted: silent degradation, notifications
					// stop arriving until an explicit restart.
					c.logger.Warn("push channel reconnect schedule exhausted", map[string]interface{}{"channel": name})
					return
				}

				c.swapSubscription(next)
				sub, name, msgs = next, nextName, next.Channel()
				continue
			}

			c.handleMessage(ctx, []byte(msg.Payload))
		}
	}
}

// reconnect walks the bounded backoff schedule, resolving the credential
// fresh on each attempt.
func (c *Channel) reconnect(ctx context.Context) (*redis.PubSub, string, bool) {
	for attempt, delay := range c.config.ReconnectSchedule {
		if delay > 0 {
			select {
			case <-ctx.Done():
				return nil, "", false
			case <-time.After(delay):
			}
		}

		metrics.ChannelReconnects.Inc()

		sub, name, err := c.connect(ctx)
		if err != nil {
			c.errs.Handle("ingest", err)
			c.logger.Warn("push channel reconnect failed", map[string]interface{}{
				"attempt": attempt + 1,
				"of":      len(c.config.ReconnectSchedule),
			})
			continue
		}

		c.setConnected(true)
		c.logger.Info("push channel reconnected", map[string]interface{}{"channel": name})
		return sub, name, true
	}

	return nil, "", false
}

func (c *Channel) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func (c *Channel) swapSubscription(sub *redis.PubSub) {
	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()
}

// handleMessage admits one inbound payload: normalize key casing, validate
// against the notification schema, then hand to the store. Failures drop the
// message; nothing partial is admitted and no error escapes the handler.
func (c *Channel) handleMessage(ctx context.Context, raw []byte) {
	normalized, err := NormalizeKeys(raw)
	if err != nil {
		c.errs.Handle("ingest", apperrors.NewPayloadMalformedError(err))
		metrics.NotificationsDropped.WithLabelValues(metrics.DropReasonMalformed).Inc()
		return
	}

	if err := validatePayload(normalized); err != nil {
		c.errs.Handle("ingest", apperrors.NewPayloadSchemaInvalidError(err.Error()))
		metrics.NotificationsDropped.WithLabelValues(metrics.DropReasonSchema).Inc()
		return
	}

	var n models.Notification
	if err := json.Unmarshal(normalized, &n); err != nil {
		c.errs.Handle("ingest", apperrors.NewPayloadMalformedError(err))
		metrics.NotificationsDropped.WithLabelValues(metrics.DropReasonMalformed).Inc()
		return
	}

	if !c.store.AddNotification(ctx, n) {
		c.logger.Debug("duplicate notification dropped", map[string]interface{}{"id": n.ID})
		metrics.NotificationsDropped.WithLabelValues(metrics.DropReasonDuplicate).Inc()
		return
	}

	metrics.NotificationsReceived.WithLabelValues(strconv.Itoa(n.NotificationTypeID)).Inc()
}
