package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeReminder_Envelope(t *testing.T) {
	now := time.Date(2025, 2, 2, 10, 0, 0, 0, time.UTC)
	body, err := encodeReminder(Reminder{
		AssignmentID:  "a-1",
		To:            "john@example.com",
		Name:          "John",
		BookTitle:     "Harry Potter",
		DueDate:       "February 12, 2025",
		DaysRemaining: 10,
	}, now)
	require.NoError(t, err)

	var got struct {
		Type      string    `json:"type"`
		Timestamp time.Time `json:"timestamp"`
		Payload   Reminder  `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, ReminderRoutingKey, got.Type)
	assert.True(t, now.Equal(got.Timestamp))
	assert.Equal(t, "john@example.com", got.Payload.To)
	assert.Equal(t, "February 12, 2025", got.Payload.DueDate)
	assert.Equal(t, 10, got.Payload.DaysRemaining)
}

func TestLogGateway(t *testing.T) {
	var buf bytes.Buffer
	g := LogGateway{Log: slog.New(slog.NewTextHandler(&buf, nil))}
	require.NoError(t, g.SendReminder(context.Background(), Reminder{AssignmentID: "a-1", To: "x@y.z", BookTitle: "Dune"}))
	assert.Contains(t, buf.String(), "assignment_id=a-1")
	assert.Contains(t, buf.String(), "book=Dune")
}
