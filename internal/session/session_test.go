package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vineet-vishwakarma/Chat-App/internal/apperr"
	"github.com/vineet-vishwakarma/Chat-App/internal/event"
	"github.com/vineet-vishwakarma/Chat-App/internal/models"
	"github.com/vineet-vishwakarma/Chat-App/internal/presence"
	"github.com/vineet-vishwakarma/Chat-App/internal/room"
	"github.com/vineet-vishwakarma/Chat-App/internal/store"
)

type fakeConn struct {
	id     string
	mu     sync.Mutex
	frames []event.Envelope
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(payload []byte) bool {
	env, err := event.Decode(payload)
	if err != nil {
		panic(err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, env)
	return true
}

func (c *fakeConn) ofType(typ string) []event.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []event.Envelope
	for _, f := range c.frames {
		if f.Type == typ {
			out = append(out, f)
		}
	}
	return out
}

func (c *fakeConn) received(t *testing.T) []models.Message {
	t.Helper()
	var out []models.Message
	for _, f := range c.ofType(event.TypeReceiveMessage) {
		var m models.Message
		require.NoError(t, json.Unmarshal(f.Payload, &m))
		out = append(out, m)
	}
	return out
}

type fakeFanout struct {
	mu    sync.Mutex
	conns map[Conn]struct{}
	rooms map[room.ID]map[Conn]struct{}
}

func newFakeFanout() *fakeFanout {
	return &fakeFanout{conns: map[Conn]struct{}{}, rooms: map[room.ID]map[Conn]struct{}{}}
}

func (f *fakeFanout) Register(c Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conns[c] = struct{}{}
}

func (f *fakeFanout) Unregister(c Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.conns, c)
	for _, members := range f.rooms {
		delete(members, c)
	}
}

func (f *fakeFanout) Subscribe(id room.ID, c Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rooms[id] == nil {
		f.rooms[id] = map[Conn]struct{}{}
	}
	f.rooms[id][c] = struct{}{}
}

func (f *fakeFanout) Broadcast(id room.ID, payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.rooms[id] {
		c.Send(payload)
	}
}

func (f *fakeFanout) BroadcastGlobal(payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.conns {
		c.Send(payload)
	}
}

type failingStore struct{ store.Store }

func (failingStore) Insert(context.Context, *models.Message) error {
	return apperr.Storage("failed to save message", errors.New("connection refused"))
}

func (failingStore) FindByPair(context.Context, string, string) ([]models.Message, error) {
	return nil, apperr.Storage("failed to load messages", errors.New("connection refused"))
}

type fixture struct {
	svc      *Service
	registry *presence.Registry
	fanout   *fakeFanout
	store    store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.OpenBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return newFixtureWithStore(st)
}

func newFixtureWithStore(st store.Store) *fixture {
	fan := newFakeFanout()
	reg := presence.NewRegistry(fan)
	return &fixture{svc: NewService(st, reg, fan), registry: reg, fanout: fan, store: st}
}

func (f *fixture) open(id string) (*Session, *fakeConn) {
	c := &fakeConn{id: id}
	return f.svc.Open(c), c
}

func statusesOf(t *testing.T, c *fakeConn) []event.UserStatus {
	t.Helper()
	var out []event.UserStatus
	for _, f := range c.ofType(event.TypeUserStatus) {
		var st event.UserStatus
		require.NoError(t, json.Unmarshal(f.Payload, &st))
		out = append(out, st)
	}
	return out
}

func TestAnnounceOnline_BroadcastsToEveryConnection(t *testing.T) {
	f := newFixture(t)
	s1, c1 := f.open("c1")
	_, c2 := f.open("c2")

	require.NoError(t, s1.AnnounceOnline("u1"))

	require.Equal(t, presence.Online, f.registry.Status("u1"))
	want := []event.UserStatus{{UserID: "u1", Status: "online"}}
	require.Equal(t, want, statusesOf(t, c1))
	require.Equal(t, want, statusesOf(t, c2))
}

func TestAnnounceOffline_BroadcastsEvenWhenAlreadyOffline(t *testing.T) {
	f := newFixture(t)
	s1, c1 := f.open("c1")

	require.NoError(t, s1.AnnounceOffline("u1"))
	require.NoError(t, s1.AnnounceOffline("u1"))

	require.Equal(t, presence.Offline, f.registry.Status("u1"))
	require.Len(t, statusesOf(t, c1), 2)
}

func TestCheckStatus_RepliesToRequesterOnly(t *testing.T) {
	f := newFixture(t)
	s1, c1 := f.open("c1")
	s2, c2 := f.open("c2")
	require.NoError(t, s2.AnnounceOnline("u2"))
	before := len(c2.ofType(event.TypeUserStatus))

	require.NoError(t, s1.CheckStatus("u2"))
	require.NoError(t, s1.CheckStatus("u3"))

	st := statusesOf(t, c1)
	require.Equal(t, event.UserStatus{UserID: "u2", Status: "online"}, st[len(st)-2])
	require.Equal(t, event.UserStatus{UserID: "u3", Status: "offline"}, st[len(st)-1])
	require.Len(t, c2.ofType(event.TypeUserStatus), before)
}

func TestJoinRoom_EmptyHistory(t *testing.T) {
	f := newFixture(t)
	s1, c1 := f.open("c1")

	msgs, err := s1.JoinRoom(context.Background(), "u1", "u2")

	require.NoError(t, err)
	require.Empty(t, msgs)
	prev := c1.ofType(event.TypePreviousMessages)
	require.Len(t, prev, 1)
	require.JSONEq(t, `[]`, string(prev[0].Payload))
	require.Equal(t, []room.ID{room.Resolve("u1", "u2")}, s1.Rooms())
}

func TestJoinRoom_HistoryIsExactlyThePair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sender, _ := f.open("sender")
	_, err := sender.SendMessage(ctx, event.SendMessage{SenderID: "u1", ReceiverID: "u2", MessageText: "one"})
	require.NoError(t, err)
	_, err = sender.SendMessage(ctx, event.SendMessage{SenderID: "u2", ReceiverID: "u1", MessageText: "two"})
	require.NoError(t, err)
	_, err = sender.SendMessage(ctx, event.SendMessage{SenderID: "u1", ReceiverID: "u3", MessageText: "elsewhere"})
	require.NoError(t, err)

	joiner, c := f.open("joiner")
	msgs, err := joiner.JoinRoom(ctx, "u2", "u1")

	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "one", msgs[0].MessageText)
	require.Equal(t, "two", msgs[1].MessageText)
	require.Len(t, c.ofType(event.TypePreviousMessages), 1)
}

func TestJoinRoom_MultipleRooms(t *testing.T) {
	f := newFixture(t)
	s1, _ := f.open("c1")

	_, err := s1.JoinRoom(context.Background(), "u1", "u2")
	require.NoError(t, err)
	_, err = s1.JoinRoom(context.Background(), "u1", "u3")
	require.NoError(t, err)

	require.Equal(t, []room.ID{"u1_u2", "u1_u3"}, s1.Rooms())
}

func TestSendMessage_FansOutToRoomIncludingSender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1, c1 := f.open("c1")
	s2, c2 := f.open("c2")
	_, c3 := f.open("c3")
	_, err := s1.JoinRoom(ctx, "u1", "u2")
	require.NoError(t, err)
	_, err = s2.JoinRoom(ctx, "u2", "u1")
	require.NoError(t, err)

	msg, err := s1.SendMessage(ctx, event.SendMessage{SenderID: "u1", ReceiverID: "u2", MessageText: "hi", TranslatedText: "salut"})
	require.NoError(t, err)

	require.NotEmpty(t, msg.ID)
	require.False(t, msg.CreatedAt.IsZero())
	require.Equal(t, room.Resolve("u1", "u2"), msg.RoomID)
	for _, c := range []*fakeConn{c1, c2} {
		got := c.received(t)
		require.Len(t, got, 1)
		require.Equal(t, msg.ID, got[0].ID)
		require.Equal(t, "hi", got[0].MessageText)
		require.Equal(t, "salut", got[0].TranslatedText)
	}
	require.Empty(t, c3.received(t))
}

func TestSendMessage_PreservesOrderPerRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1, c1 := f.open("c1")
	s2, c2 := f.open("c2")
	_, err := s1.JoinRoom(ctx, "u1", "u2")
	require.NoError(t, err)
	_, err = s2.JoinRoom(ctx, "u1", "u2")
	require.NoError(t, err)

	for _, text := range []string{"m1", "m2", "m3"} {
		_, err := s1.SendMessage(ctx, event.SendMessage{SenderID: "u1", ReceiverID: "u2", MessageText: text})
		require.NoError(t, err)
	}

	for _, c := range []*fakeConn{c1, c2} {
		got := c.received(t)
		require.Len(t, got, 3)
		require.Equal(t, []string{"m1", "m2", "m3"}, []string{got[0].MessageText, got[1].MessageText, got[2].MessageText})
	}
}

func TestSendMessage_ConcurrentSendersSeeSameOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1, c1 := f.open("c1")
	s2, c2 := f.open("c2")
	_, err := s1.JoinRoom(ctx, "u1", "u2")
	require.NoError(t, err)
	_, err = s2.JoinRoom(ctx, "u2", "u1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i, s := range []*Session{s1, s2} {
		wg.Add(1)
		go func(i int, s *Session) {
			defer wg.Done()
			for n := 0; n < 20; n++ {
				if _, err := s.SendMessage(ctx, event.SendMessage{SenderID: "u1", ReceiverID: "u2", MessageText: fmt.Sprintf("s%d-%d", i, n)}); err != nil {
					t.Error(err)
				}
			}
		}(i, s)
	}
	wg.Wait()

	got1, got2 := c1.received(t), c2.received(t)
	require.Len(t, got1, 40)
	require.Equal(t, got1, got2)
}

func TestSendMessage_StoreFailureAbortsBroadcast(t *testing.T) {
	f := newFixtureWithStore(failingStore{})
	s1, c1 := f.open("c1")
	f.fanout.Subscribe(room.Resolve("u1", "u2"), c1)

	payload, _ := json.Marshal(event.SendMessage{SenderID: "u1", ReceiverID: "u2", MessageText: "hi"})
	err := s1.Handle(context.Background(), event.Envelope{Type: event.TypeSendMessage, Payload: payload})

	require.True(t, apperr.Is(err, apperr.KindStorage))
	require.Empty(t, c1.received(t))
	errs := c1.ofType(event.TypeError)
	require.Len(t, errs, 1)
	require.JSONEq(t, `{"event":"sendMessage","message":"failed to save message"}`, string(errs[0].Payload))
}

func TestSendMessage_EmptyTextIsValidationError(t *testing.T) {
	f := newFixture(t)
	s1, c1 := f.open("c1")
	_, err := s1.JoinRoom(context.Background(), "u1", "u2")
	require.NoError(t, err)

	_, err = s1.SendMessage(context.Background(), event.SendMessage{SenderID: "u1", ReceiverID: "u2"})

	require.True(t, apperr.Is(err, apperr.KindValidation))
	require.Empty(t, c1.received(t))
}

func TestHandle_Dispatch(t *testing.T) {
	f := newFixture(t)
	s1, c1 := f.open("c1")
	ctx := context.Background()

	require.NoError(t, s1.Handle(ctx, event.Envelope{Type: event.TypeOnline, Payload: json.RawMessage(`"u1"`)}))
	require.Equal(t, presence.Online, f.registry.Status("u1"))

	require.NoError(t, s1.Handle(ctx, event.Envelope{Type: event.TypeJoinRoom, Payload: json.RawMessage(`{"userId":"u1","receiverId":"u2"}`)}))
	require.Len(t, c1.ofType(event.TypePreviousMessages), 1)

	require.NoError(t, s1.Handle(ctx, event.Envelope{Type: event.TypeOffline, Payload: json.RawMessage(`"u1"`)}))
	require.Equal(t, presence.Offline, f.registry.Status("u1"))

	err := s1.Handle(ctx, event.Envelope{Type: "typing", Payload: json.RawMessage(`{}`)})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	err = s1.Handle(ctx, event.Envelope{Type: event.TypeJoinRoom, Payload: json.RawMessage(`"not an object"`)})
	require.True(t, apperr.Is(err, apperr.KindValidation))
	require.Len(t, c1.ofType(event.TypeError), 2)
}

func TestDisconnect_AnnouncesOfflineAndIsTerminal(t *testing.T) {
	f := newFixture(t)
	s1, _ := f.open("c1")
	_, c2 := f.open("c2")
	require.NoError(t, s1.AnnounceOnline("u1"))
	_, err := s1.JoinRoom(context.Background(), "u1", "u2")
	require.NoError(t, err)

	s1.Disconnect()
	s1.Disconnect()

	require.Equal(t, Disconnected, s1.State())
	require.Empty(t, s1.Rooms())
	require.Equal(t, presence.Offline, f.registry.Status("u1"))
	st := statusesOf(t, c2)
	require.Equal(t, []event.UserStatus{{UserID: "u1", Status: "online"}, {UserID: "u1", Status: "offline"}}, st)

	require.ErrorIs(t, s1.AnnounceOnline("u1"), ErrDisconnected)
	_, err = s1.SendMessage(context.Background(), event.SendMessage{SenderID: "u1", ReceiverID: "u2", MessageText: "x"})
	require.ErrorIs(t, err, ErrDisconnected)
}

func TestDisconnect_ShadowedConnectionLeavesNewerPresence(t *testing.T) {
	f := newFixture(t)
	first, _ := f.open("c1")
	second, _ := f.open("c2")
	require.NoError(t, first.AnnounceOnline("u1"))
	require.NoError(t, second.AnnounceOnline("u1"))

	first.Disconnect()

	require.Equal(t, presence.Online, f.registry.Status("u1"))

	second.Disconnect()
	require.Equal(t, presence.Offline, f.registry.Status("u1"))
}

// Known insecure: connections are not authenticated, so any session can
// announce, join and send as any identity.
func TestKnownInsecure_AnySessionCanActAsAnyUser(t *testing.T) {
	f := newFixture(t)
	mallory, _ := f.open("mallory")
	victim, cv := f.open("victim")
	_, err := victim.JoinRoom(context.Background(), "alice", "bob")
	require.NoError(t, err)

	require.NoError(t, mallory.AnnounceOnline("alice"))
	_, err = mallory.SendMessage(context.Background(), event.SendMessage{SenderID: "alice", ReceiverID: "bob", MessageText: "spoofed"})
	require.NoError(t, err)

	require.Equal(t, presence.Online, f.registry.Status("alice"))
	got := cv.received(t)
	require.Len(t, got, 1)
	require.Equal(t, "alice", got[0].SenderID)
}
