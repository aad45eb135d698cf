package realtime

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "foodbridge_realtime_sessions",
		Help: "Currently registered websocket sessions.",
	})
	deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodbridge_realtime_deliveries_total",
		Help: "Events pushed to sessions, by outcome.",
	}, []string{"kind", "outcome"})
)

// Router is the in-process presence registry. A user may hold any number of
// concurrent sessions (one per device); rooms group sessions for typing
// indicators, while message delivery targets users directly so it reaches
// participants who never joined the room.
type Router struct {
	mu           sync.RWMutex
	sessions     map[string]*Connection         // session ID -> connection
	userSessions map[string]map[string]struct{} // user ID -> session IDs
	rooms        map[string]map[string]struct{} // room ID -> session IDs
	sessionRooms map[string]map[string]struct{} // session ID -> room IDs
}

func NewRouter() *Router {
	return &Router{
		sessions:     make(map[string]*Connection),
		userSessions: make(map[string]map[string]struct{}),
		rooms:        make(map[string]map[string]struct{}),
		sessionRooms: make(map[string]map[string]struct{}),
	}
}

// Register adds a session. It never evicts the user's other sessions.
func (r *Router) Register(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[conn.ID] = conn
	if r.userSessions[conn.UserID] == nil {
		r.userSessions[conn.UserID] = make(map[string]struct{})
	}
	r.userSessions[conn.UserID][conn.ID] = struct{}{}
	sessionsGauge.Inc()
}

// Unregister removes a session and purges it from every room it joined.
// Other sessions of the same user are untouched. Idempotent.
func (r *Router) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(r.sessions, sessionID)
	sessionsGauge.Dec()

	if set := r.userSessions[conn.UserID]; set != nil {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(r.userSessions, conn.UserID)
		}
	}
	for roomID := range r.sessionRooms[sessionID] {
		r.leaveLocked(roomID, sessionID)
	}
	delete(r.sessionRooms, sessionID)
}

// Join adds the session to a room. Joining twice is a no-op.
func (r *Router) Join(roomID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sessionID]; !ok {
		return
	}
	if r.rooms[roomID] == nil {
		r.rooms[roomID] = make(map[string]struct{})
	}
	r.rooms[roomID][sessionID] = struct{}{}
	if r.sessionRooms[sessionID] == nil {
		r.sessionRooms[sessionID] = make(map[string]struct{})
	}
	r.sessionRooms[sessionID][roomID] = struct{}{}
}

// Leave removes the session from a room. Leaving a room it never joined is
// a no-op.
func (r *Router) Leave(roomID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(roomID, sessionID)
	if set := r.sessionRooms[sessionID]; set != nil {
		delete(set, roomID)
	}
}

func (r *Router) leaveLocked(roomID, sessionID string) {
	if set := r.rooms[roomID]; set != nil {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(r.rooms, roomID)
		}
	}
}

// BroadcastToRoom pushes payload to every session in the room except the
// originating one. Returns the number of sessions reached.
func (r *Router) BroadcastToRoom(roomID string, payload []byte, originSessionID string) int {
	r.mu.RLock()
	var targets []*Connection
	for sessionID := range r.rooms[roomID] {
		if sessionID == originSessionID {
			continue
		}
		if conn, ok := r.sessions[sessionID]; ok {
			targets = append(targets, conn)
		}
	}
	r.mu.RUnlock()

	return push("room", payload, targets)
}

// DeliverToUsers pushes payload to every session of every listed user,
// skipping excludeUserID. Users with no live session are silently skipped;
// there is no queueing or retry.
func (r *Router) DeliverToUsers(payload []byte, userIDs []string, excludeUserID string) int {
	r.mu.RLock()
	var targets []*Connection
	for _, userID := range userIDs {
		if userID == excludeUserID {
			continue
		}
		for sessionID := range r.userSessions[userID] {
			if conn, ok := r.sessions[sessionID]; ok {
				targets = append(targets, conn)
			}
		}
	}
	r.mu.RUnlock()

	return push("user", payload, targets)
}

// SessionsForUser reports how many live sessions the user has.
func (r *Router) SessionsForUser(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.userSessions[userID])
}

// Close disconnects every session.
func (r *Router) Close() {
	r.mu.Lock()
	conns := make([]*Connection, 0, len(r.sessions))
	for _, conn := range r.sessions {
		conns = append(conns, conn)
	}
	r.mu.Unlock()

	for _, conn := range conns {
		conn.Close(websocket.CloseGoingAway, "server shutting down")
		r.Unregister(conn.ID)
	}
}

func push(kind string, payload []byte, targets []*Connection) int {
	delivered := 0
	for _, conn := range targets {
		if err := conn.Send(payload); err != nil {
			deliveriesTotal.WithLabelValues(kind, "dropped").Inc()
			continue
		}
		deliveriesTotal.WithLabelValues(kind, "delivered").Inc()
		delivered++
	}
	return delivered
}
