package notify

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/andhikadk/smi-test/internal/domain"
	"github.com/andhikadk/smi-test/internal/kafka"
	"github.com/andhikadk/smi-test/internal/repository"
)

// Message is what would be delivered to a person. Delivery is out of scope:
// the sender only logs it.
type Message struct {
	RecipientID int64
	Email       string
	Subject     string
}

type Sender struct {
	users repository.UserRepository
	logf  func(format string, args ...any)
}

func NewSender(users repository.UserRepository) *Sender {
	return &Sender{users: users, logf: log.Printf}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	msg, ok := Compose(event)
	if !ok {
		return nil
	}

	u, err := s.users.GetByID(ctx, msg.RecipientID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.logf("[notify] booking %d: recipient %d no longer exists", event.BookingID, msg.RecipientID)
		return nil
	case err != nil:
		return fmt.Errorf("load recipient %d: %w", msg.RecipientID, err)
	}
	msg.Email = u.Email

	s.logf("[notify] to=%s subject=%q event=%s", msg.Email, msg.Subject, event.EventID)
	return nil
}

// Compose picks the recipient: the next approver while the booking waits,
// the requester once the outcome is final.
func Compose(event kafka.BookingEvent) (Message, bool) {
	switch event.Type {
	case kafka.EventBookingCreated, kafka.EventBookingLevelAdvanced:
		if event.NextApproverID == 0 {
			return Message{}, false
		}
		return Message{
			RecipientID: event.NextApproverID,
			Subject:     fmt.Sprintf("Booking %d awaits your level %d approval", event.BookingID, levelAwaited(event)),
		}, true
	case kafka.EventBookingApproved:
		return Message{
			RecipientID: event.RequesterID,
			Subject:     fmt.Sprintf("Booking %d has been approved", event.BookingID),
		}, true
	case kafka.EventBookingRejected:
		subject := fmt.Sprintf("Booking %d was rejected at level %d", event.BookingID, event.Level)
		if event.Notes != "" {
			subject += ": " + event.Notes
		}
		return Message{RecipientID: event.RequesterID, Subject: subject}, true
	default:
		return Message{}, false
	}
}

func levelAwaited(event kafka.BookingEvent) int {
	if event.Type == kafka.EventBookingCreated {
		return domain.ApprovalLevelFirst
	}
	return domain.ApprovalLevelSecond
}
