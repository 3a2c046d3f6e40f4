// Package notify delivers borrower reminders.
package notify

import (
	"context"
	"log/slog"
)

// Reminder carries everything a downstream mailer needs to render the message.
type Reminder struct {
	AssignmentID  string `json:"assignment_id"`
	To            string `json:"to"`
	Name          string `json:"name"`
	BookTitle     string `json:"book_title"`
	DueDate       string `json:"due_date"`
	DaysRemaining int    `json:"days_remaining"`
}

type Gateway interface {
	SendReminder(ctx context.Context, r Reminder) error
}

// LogGateway only logs reminders. Used in development.
type LogGateway struct {
	Log *slog.Logger
}

func (g LogGateway) SendReminder(ctx context.Context, r Reminder) error {
	log := g.Log
	if log == nil {
		log = slog.Default()
	}
	log.InfoContext(ctx, "reminder",
		"assignment_id", r.AssignmentID,
		"to", r.To,
		"book", r.BookTitle,
		"due_date", r.DueDate,
		"days_remaining", r.DaysRemaining,
	)
	return nil
}
