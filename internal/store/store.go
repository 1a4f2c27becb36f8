// Package store persists chat messages. Messages are append-only: they are
// written once and read back by participant pair or by room.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/vineet-vishwakarma/Chat-App/internal/apperr"
	"github.com/vineet-vishwakarma/Chat-App/internal/models"
	"github.com/vineet-vishwakarma/Chat-App/internal/room"
)

type Store interface {
	// Insert assigns an id and timestamps when missing and persists msg.
	Insert(ctx context.Context, msg *models.Message) error
	// FindByPair returns every message exchanged between a and b, in either
	// direction, oldest first.
	FindByPair(ctx context.Context, a, b string) ([]models.Message, error)
	// ListByRoom returns every message stored under id, oldest first.
	ListByRoom(ctx context.Context, id room.ID) ([]models.Message, error)
	Close() error
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// prepare enforces required fields and fills generated ones.
func prepare(msg *models.Message) error {
	if err := validate.Struct(msg); err != nil {
		return apperr.Validation(validationMessage(err), err)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if msg.UpdatedAt.IsZero() {
		msg.UpdatedAt = msg.CreatedAt
	}
	return nil
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "invalid message"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		fields = append(fields, strings.ToLower(name[:1])+name[1:])
	}
	return strings.Join(fields, ", ") + " is required"
}

func isPair(m models.Message, a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}
