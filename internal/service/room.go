package service

import (
	"github.com/vineet-vishwakarma/Chat-App/internal/apperr"
	"github.com/vineet-vishwakarma/Chat-App/internal/room"
	"github.com/vineet-vishwakarma/Chat-App/internal/ws"
)

type RoomService struct {
	hub *ws.Hub
}

func NewRoomService(hub *ws.Hub) *RoomService {
	return &RoomService{hub: hub}
}

// RoomDTO describes the one-to-one room between two users.
type RoomDTO struct {
	RoomID       room.ID  `json:"roomId"`
	Participants []string `json:"participants"`
	Subscribers  int      `json:"subscribers"`
}

// Describe resolves the room of me and peer and reports how many live
// connections are subscribed to it.
func (s *RoomService) Describe(me, peer string) (*RoomDTO, error) {
	if peer == "" {
		return nil, apperr.Validation("peerId is required", nil)
	}
	id := room.Resolve(me, peer)
	return &RoomDTO{RoomID: id, Participants: []string{me, peer}, Subscribers: s.hub.Online(id)}, nil
}
