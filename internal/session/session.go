package session

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/vineet-vishwakarma/Chat-App/internal/apperr"
	"github.com/vineet-vishwakarma/Chat-App/internal/event"
	"github.com/vineet-vishwakarma/Chat-App/internal/metrics"
	"github.com/vineet-vishwakarma/Chat-App/internal/models"
	"github.com/vineet-vishwakarma/Chat-App/internal/room"
)

type State int

const (
	Connected State = iota
	Disconnected
)

func (s State) String() string {
	if s == Disconnected {
		return "disconnected"
	}
	return "connected"
}

var ErrDisconnected = errors.New("session disconnected")

// Session is the state of one connection. Identities in events are taken
// as given: the connection is not authenticated, so any session may speak
// for any user id.
type Session struct {
	svc  *Service
	conn Conn

	mu    sync.Mutex
	state State
	rooms map[room.ID]struct{}
}

func (s *Session) ID() string { return s.conn.ID() }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Rooms returns the rooms this session joined, sorted.
func (s *Session) Rooms() []room.ID {
	s.mu.Lock()
	ids := lo.Keys(s.rooms)
	s.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Session) active() error {
	if s.State() == Disconnected {
		return ErrDisconnected
	}
	return nil
}

// Handle dispatches one inbound event. A failure is logged and reported to
// this connection only as an error event; nothing is retried.
func (s *Session) Handle(ctx context.Context, env event.Envelope) error {
	err := s.dispatch(ctx, env)
	if err != nil {
		log.Error().Err(err).Str("conn_id", s.ID()).Str("event", env.Type).Msg("handle event")
		s.reply(event.TypeError, event.Error{Event: env.Type, Message: apperr.MessageOf(err)})
	}
	return err
}

func (s *Session) dispatch(ctx context.Context, env event.Envelope) error {
	switch env.Type {
	case event.TypeOnline, event.TypeOffline, event.TypeCheckStatus:
		var userID string
		if err := env.Bind(&userID); err != nil {
			return apperr.Validation("invalid payload", err)
		}
		switch env.Type {
		case event.TypeOnline:
			return s.AnnounceOnline(userID)
		case event.TypeOffline:
			return s.AnnounceOffline(userID)
		default:
			return s.CheckStatus(userID)
		}
	case event.TypeJoinRoom:
		var p event.JoinRoom
		if err := env.Bind(&p); err != nil {
			return apperr.Validation("invalid payload", err)
		}
		_, err := s.JoinRoom(ctx, p.UserID, p.ReceiverID)
		return err
	case event.TypeSendMessage:
		var p event.SendMessage
		if err := env.Bind(&p); err != nil {
			return apperr.Validation("invalid payload", err)
		}
		_, err := s.SendMessage(ctx, p)
		return err
	default:
		return apperr.Validation("unknown event "+env.Type, nil)
	}
}

func (s *Session) AnnounceOnline(userID string) error {
	if err := s.active(); err != nil {
		return err
	}
	s.svc.presence.SetOnline(userID, s.ID())
	return nil
}

func (s *Session) AnnounceOffline(userID string) error {
	if err := s.active(); err != nil {
		return err
	}
	s.svc.presence.SetOffline(userID)
	return nil
}

// CheckStatus replies to this connection only.
func (s *Session) CheckStatus(userID string) error {
	if err := s.active(); err != nil {
		return err
	}
	st := s.svc.presence.Status(userID)
	s.reply(event.TypeUserStatus, event.UserStatus{UserID: userID, Status: string(st)})
	return nil
}

// JoinRoom subscribes this connection to the room of (userID, receiverID)
// and replies with the full history of that pair, oldest first. The history
// is not paginated.
func (s *Session) JoinRoom(ctx context.Context, userID, receiverID string) ([]models.Message, error) {
	if err := s.active(); err != nil {
		return nil, err
	}
	id := room.Resolve(userID, receiverID)
	s.svc.fanout.Subscribe(id, s.conn)
	s.mu.Lock()
	s.rooms[id] = struct{}{}
	s.mu.Unlock()
	log.Debug().Str("conn_id", s.ID()).Str("user_id", userID).Str("room_id", id.String()).Msg("joined room")

	msgs, err := s.svc.store.FindByPair(ctx, userID, receiverID)
	if err != nil {
		return nil, err
	}
	metrics.HistoryLoadsTotal.Inc()
	s.reply(event.TypePreviousMessages, msgs)
	return msgs, nil
}

// SendMessage persists the message and broadcasts the stored copy to every
// connection subscribed to the room, the sender's included. A store failure
// aborts the send; nothing is broadcast.
func (s *Session) SendMessage(ctx context.Context, in event.SendMessage) (models.Message, error) {
	if err := s.active(); err != nil {
		return models.Message{}, err
	}
	id := room.Resolve(in.SenderID, in.ReceiverID)
	unlock := s.svc.locks.lock(id)
	defer unlock()

	msg := models.Message{
		RoomID:         id,
		SenderID:       in.SenderID,
		ReceiverID:     in.ReceiverID,
		MessageText:    in.MessageText,
		TranslatedText: in.TranslatedText,
	}
	if err := s.svc.store.Insert(ctx, &msg); err != nil {
		return models.Message{}, err
	}
	payload, err := event.Encode(event.TypeReceiveMessage, msg)
	if err != nil {
		return models.Message{}, apperr.Internal("failed to encode message", err)
	}
	s.svc.fanout.Broadcast(id, payload)
	metrics.WsMessagesTotal.Inc()
	return msg, nil
}

// Disconnect is terminal. It drops every subscription and, when this
// connection still owns a presence entry, announces that user offline.
// Calling it again is a no-op.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.state == Disconnected {
		s.mu.Unlock()
		return
	}
	s.state = Disconnected
	s.rooms = make(map[room.ID]struct{})
	s.mu.Unlock()

	s.svc.fanout.Unregister(s.conn)
	if userID, ok := s.svc.presence.OnDisconnect(s.ID()); ok {
		log.Info().Str("conn_id", s.ID()).Str("user_id", userID).Msg("user went offline on disconnect")
	}
}

func (s *Session) reply(typ string, payload any) {
	b, err := event.Encode(typ, payload)
	if err != nil {
		log.Error().Err(err).Str("conn_id", s.ID()).Str("event", typ).Msg("encode reply")
		return
	}
	s.conn.Send(b)
}
