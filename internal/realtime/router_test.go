package realtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type RouterSuite struct {
	suite.Suite
	router *Router
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.router = NewRouter()
}

// newTestConn builds a connection with no underlying socket. The write loop
// is never started, so pushed payloads stay in the send buffer for draining.
func (s *RouterSuite) newTestConn(userID string) *Connection {
	conn := NewConnection(userID, nil)
	s.router.Register(conn)
	return conn
}

func drain(conn *Connection) [][]byte {
	var out [][]byte
	for {
		select {
		case msg := <-conn.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func (s *RouterSuite) TestDeliverToUsersReachesEverySession() {
	alice := uuid.NewString()
	bob := uuid.NewString()

	alicePhone := s.newTestConn(alice)
	aliceLaptop := s.newTestConn(alice)
	bobPhone := s.newTestConn(bob)

	delivered := s.router.DeliverToUsers([]byte("hi"), []string{alice, bob}, bob)

	s.Equal(2, delivered, "both of alice's sessions and none of bob's")
	s.Len(drain(alicePhone), 1)
	s.Len(drain(aliceLaptop), 1)
	s.Empty(drain(bobPhone), "the excluded user must not receive the event")
}

func (s *RouterSuite) TestDeliverWithoutExclusionReachesSenderSessions() {
	alice := uuid.NewString()
	bob := uuid.NewString()

	alicePhone := s.newTestConn(alice)
	aliceLaptop := s.newTestConn(alice)
	bobPhone := s.newTestConn(bob)

	delivered := s.router.DeliverToUsers([]byte("hi"), []string{alice, bob}, "")

	s.Equal(3, delivered, "every session of every participant, sender included")
	s.Len(drain(alicePhone), 1)
	s.Len(drain(aliceLaptop), 1, "the sender's other sessions stay in sync")
	s.Len(drain(bobPhone), 1)
}

func (s *RouterSuite) TestDeliverToOfflineUserIsSilent() {
	delivered := s.router.DeliverToUsers([]byte("hi"), []string{uuid.NewString()}, "")
	s.Zero(delivered)
}

func (s *RouterSuite) TestRoomBroadcastSkipsOrigin() {
	room := uuid.NewString()
	typist := s.newTestConn(uuid.NewString())
	watcher := s.newTestConn(uuid.NewString())
	outsider := s.newTestConn(uuid.NewString())

	s.router.Join(room, typist.ID)
	s.router.Join(room, watcher.ID)

	delivered := s.router.BroadcastToRoom(room, []byte("typing"), typist.ID)

	s.Equal(1, delivered)
	s.Empty(drain(typist), "origin session must not hear itself")
	s.Len(drain(watcher), 1)
	s.Empty(drain(outsider), "sessions outside the room hear nothing")
}

func (s *RouterSuite) TestJoinIsIdempotent() {
	room := uuid.NewString()
	conn := s.newTestConn(uuid.NewString())
	observer := s.newTestConn(uuid.NewString())

	s.router.Join(room, conn.ID)
	s.router.Join(room, conn.ID)
	s.router.Join(room, observer.ID)

	delivered := s.router.BroadcastToRoom(room, []byte("x"), observer.ID)
	s.Equal(1, delivered, "double join must not double deliveries")
}

func (s *RouterSuite) TestUnregisterPurgesRooms() {
	room := uuid.NewString()
	user := uuid.NewString()
	conn := s.newTestConn(user)
	s.router.Join(room, conn.ID)

	s.router.Unregister(conn.ID)

	s.Zero(s.router.BroadcastToRoom(room, []byte("x"), ""))
	s.Zero(s.router.DeliverToUsers([]byte("x"), []string{user}, ""))
	s.Zero(s.router.SessionsForUser(user))
}

func (s *RouterSuite) TestUnregisterLeavesSiblingSessionsAlone() {
	user := uuid.NewString()
	phone := s.newTestConn(user)
	laptop := s.newTestConn(user)

	s.router.Unregister(phone.ID)

	s.Equal(1, s.router.SessionsForUser(user))
	s.Equal(1, s.router.DeliverToUsers([]byte("x"), []string{user}, ""))
	s.Len(drain(laptop), 1)
}

func (s *RouterSuite) TestLeaveUnknownRoomIsNoOp() {
	conn := s.newTestConn(uuid.NewString())
	s.router.Leave(uuid.NewString(), conn.ID)
	s.router.Unregister(uuid.NewString())
}
