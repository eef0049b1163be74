// Package realtime tracks live viewer connections and fans events out to
// them. Delivery is best effort: no acknowledgement, no backlog.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrDeliveryFailure marks a push that could not reach its channel. It
// never leaves the hub; the channel is dropped instead.
var ErrDeliveryFailure = errors.New("delivery failure")

// Channel is an outbound push sink for one connected user.
type Channel interface {
	Send(payload []byte) error
	Close() error
}

// BroadcastResult summarises one fan-out.
type BroadcastResult struct {
	Delivered int
	Failed    []string
}

// Hub maps user ids to their single live channel.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]Channel
	logger   *zap.Logger
}

// NewHub builds an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		channels: make(map[string]Channel),
		logger:   logger,
	}
}

// Register binds ch to userID, closing any channel it replaces.
func (h *Hub) Register(userID string, ch Channel) {
	h.mu.Lock()
	prev, existed := h.channels[userID]
	h.channels[userID] = ch
	total := len(h.channels)
	h.mu.Unlock()

	if existed && prev != ch {
		_ = prev.Close()
		h.logger.Info("channel replaced", zap.String("user_id", userID))
	}
	h.logger.Info("user connected", zap.String("user_id", userID), zap.Int("connected", total))
}

// Unregister drops whatever channel userID has. Absent users are a no-op.
func (h *Hub) Unregister(userID string) {
	h.mu.Lock()
	_, existed := h.channels[userID]
	delete(h.channels, userID)
	total := len(h.channels)
	h.mu.Unlock()

	if existed {
		h.logger.Info("user disconnected", zap.String("user_id", userID), zap.Int("connected", total))
	}
}

// Release drops userID only while ch is still its registered channel, so
// a connection that was replaced cannot evict its successor.
func (h *Hub) Release(userID string, ch Channel) bool {
	h.mu.Lock()
	current, ok := h.channels[userID]
	if !ok || current != ch {
		h.mu.Unlock()
		return false
	}
	delete(h.channels, userID)
	total := len(h.channels)
	h.mu.Unlock()

	h.logger.Info("user disconnected", zap.String("user_id", userID), zap.Int("connected", total))
	return true
}

// Connected returns the number of registered channels.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

// IsConnected reports whether userID has a channel.
func (h *Hub) IsConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.channels[userID]
	return ok
}

type target struct {
	userID string
	ch     Channel
}

// Broadcast pushes payload to every registered channel concurrently. A
// channel whose send fails is closed and unregistered; the others are
// unaffected. A done ctx skips the broadcast and leaves membership alone.
func (h *Hub) Broadcast(ctx context.Context, payload []byte) BroadcastResult {
	if err := ctx.Err(); err != nil {
		h.logger.Warn("broadcast skipped", zap.Error(err))
		return BroadcastResult{}
	}

	h.mu.RLock()
	targets := make([]target, 0, len(h.channels))
	for userID, ch := range h.channels {
		targets = append(targets, target{userID: userID, ch: ch})
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return BroadcastResult{}
	}

	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func(i int, t target) {
			defer wg.Done()
			errs[i] = send(t.ch, payload)
		}(i, t)
	}
	wg.Wait()

	var result BroadcastResult
	for i, t := range targets {
		if errs[i] == nil {
			result.Delivered++
			continue
		}
		h.logger.Warn("broadcast failed",
			zap.String("user_id", t.userID),
			zap.Error(fmt.Errorf("%w: %v", ErrDeliveryFailure, errs[i])))
		if h.Release(t.userID, t.ch) {
			_ = t.ch.Close()
		}
		result.Failed = append(result.Failed, t.userID)
	}
	return result
}

func send(ch Channel, payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("send panicked: %v", r)
		}
	}()
	return ch.Send(payload)
}
