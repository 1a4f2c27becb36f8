package service

import (
	"context"
	"strings"

	"github.com/vineet-vishwakarma/Chat-App/internal/apperr"
	"github.com/vineet-vishwakarma/Chat-App/internal/models"
	"github.com/vineet-vishwakarma/Chat-App/internal/room"
	"github.com/vineet-vishwakarma/Chat-App/internal/store"
	"github.com/vineet-vishwakarma/Chat-App/internal/translate"
)

// MessageService serves message history and translation over REST. Writes
// only happen on the websocket path.
type MessageService struct {
	store      store.Store
	translator translate.Translator
}

func NewMessageService(st store.Store, tr translate.Translator) *MessageService {
	return &MessageService{store: st, translator: tr}
}

// ListByPair returns the messages stored under the room of the two users,
// oldest first.
func (s *MessageService) ListByPair(ctx context.Context, senderID, receiverID string) ([]models.Message, error) {
	if senderID == "" || receiverID == "" {
		return nil, apperr.Validation("senderId and receiverId are required", nil)
	}
	return s.store.ListByRoom(ctx, room.Resolve(senderID, receiverID))
}

type TranslateInput struct {
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
	Message        string `json:"message"`
}

func (s *MessageService) Translate(ctx context.Context, in TranslateInput) (translate.Result, error) {
	if strings.TrimSpace(in.TargetLanguage) == "" || strings.TrimSpace(in.Message) == "" {
		return translate.Result{}, apperr.Validation("targetLanguage and message are required", nil)
	}
	return s.translator.Translate(ctx, translate.Request{
		SourceLanguage: in.SourceLanguage,
		TargetLanguage: in.TargetLanguage,
		Text:           in.Message,
	})
}
