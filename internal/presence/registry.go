// Package presence tracks which user identities are online in this process
// and announces status changes to every connected client.
//
// The registry holds one connection handle per identity. A second online
// announcement for the same identity replaces the first handle; the older
// connection stays connected but is no longer reachable through presence.
package presence

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/vineet-vishwakarma/Chat-App/internal/event"
	"github.com/vineet-vishwakarma/Chat-App/internal/metrics"
)

type Status string

const (
	Online  Status = "online"
	Offline Status = "offline"
)

// Publisher delivers a frame to every connected session.
type Publisher interface {
	BroadcastGlobal(payload []byte)
}

// Registry maps user identity to connection handle. Every mutation and the
// status notification it triggers happen under one mutex, so notifications
// for the same identity go out in mutation order.
type Registry struct {
	mu      sync.Mutex
	entries map[string]string
	pub     Publisher
}

func NewRegistry(pub Publisher) *Registry {
	return &Registry{entries: make(map[string]string), pub: pub}
}

// SetOnline records handle for userID and broadcasts the online status.
func (r *Registry) SetOnline(userID, handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.entries[userID]; ok && prev != handle {
		log.Warn().Str("user_id", userID).Str("conn_id", handle).Str("shadowed_conn_id", prev).
			Msg("presence handle replaced")
	}
	r.entries[userID] = handle
	metrics.PresenceOnline.Set(float64(len(r.entries)))
	r.publish(userID, Online)
}

// SetOffline removes userID and broadcasts the offline status, whether or
// not an entry existed.
func (r *Registry) SetOffline(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, userID)
	metrics.PresenceOnline.Set(float64(len(r.entries)))
	r.publish(userID, Offline)
}

func (r *Registry) Status(userID string) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[userID]; ok {
		return Online
	}
	return Offline
}

// OnDisconnect finds the identity currently mapped to handle by scanning
// all entries, removes it and broadcasts offline. A handle that has been
// replaced by a newer one matches nothing.
func (r *Registry) OnDisconnect(handle string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, h := range r.entries {
		if h != handle {
			continue
		}
		delete(r.entries, userID)
		metrics.PresenceOnline.Set(float64(len(r.entries)))
		r.publish(userID, Offline)
		return userID, true
	}
	return "", false
}

// OnlineUsers returns a sorted snapshot of the online identities.
func (r *Registry) OnlineUsers() []string {
	r.mu.Lock()
	users := lo.Keys(r.entries)
	r.mu.Unlock()
	sort.Strings(users)
	return users
}

func (r *Registry) publish(userID string, status Status) {
	if r.pub == nil {
		return
	}
	b, err := event.Encode(event.TypeUserStatus, event.UserStatus{UserID: userID, Status: string(status)})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("encode user status")
		return
	}
	r.pub.BroadcastGlobal(b)
}
