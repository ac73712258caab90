package jsonrpc

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

/* =========================
   Groups / broadcast
   - named groups of live connections
   - Broadcast encodes once and hands the frame to every member's
     send primitive; delivery is best effort per member
   ========================= */

type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[string]Transport
	log    zerolog.Logger
}

func NewHub(log *zerolog.Logger) *Hub {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Hub{
		groups: make(map[string]map[string]Transport),
		log:    *log,
	}
}

// Join adds a connection to a group and returns its member id for Leave.
func (h *Hub) Join(group string, t Transport) string {
	id := uuid.NewString()
	h.mu.Lock()
	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]Transport)
		h.groups[group] = members
	}
	members[id] = t
	h.mu.Unlock()
	return id
}

func (h *Hub) Leave(group, id string) {
	h.mu.Lock()
	if members, ok := h.groups[group]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
	h.mu.Unlock()
}

// Size reports the current member count of a group.
func (h *Hub) Size(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// Broadcast JSON-encodes v once and sends it to every member of the group.
// Individual send failures are logged and skipped; the first encode failure
// is the only error returned.
func (h *Hub) Broadcast(ctx context.Context, group string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	h.mu.RLock()
	members := make([]Transport, 0, len(h.groups[group]))
	for _, t := range h.groups[group] {
		members = append(members, t)
	}
	h.mu.RUnlock()

	for _, t := range members {
		if err := t.Send(ctx, payload); err != nil {
			h.log.Warn().Str("group", group).Err(err).Msg("broadcast send failed")
		}
	}
	return nil
}
