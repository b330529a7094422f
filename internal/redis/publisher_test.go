package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/operating-room-scheduling/internal/surgery"
)

type publishStub struct {
	channel string
	message []byte
	err     error
}

func (p *publishStub) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	p.channel = channel
	p.message, _ = message.([]byte)
	return redis.NewIntResult(1, p.err)
}

func TestEventPublisher_Record(t *testing.T) {
	stub := &publishStub{}
	pub := NewEventPublisher(stub, "surgery:events")

	roomID := 2
	start := time.Date(2025, 7, 28, 10, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)
	ev := surgery.Event{
		Type: surgery.EventSurgeryScheduled,
		Request: surgery.Request{
			ID:                 11,
			Category:           surgery.CategoryHeart,
			Status:             surgery.StatusScheduled,
			ScheduledRoomID:    &roomID,
			ScheduledStartTime: &start,
			ScheduledEndTime:   &end,
		},
		OccurredAt: start,
	}

	require.NoError(t, pub.Record(context.Background(), ev))
	assert.Equal(t, "surgery:events", stub.channel)

	var got struct {
		ID      string `json:"id"`
		Type    string `json:"type"`
		Payload struct {
			RequestID int64  `json:"request_id"`
			Category  string `json:"doctor_type"`
			RoomID    int    `json:"room_id"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(stub.message, &got))
	_, err := uuid.Parse(got.ID)
	assert.NoError(t, err)
	assert.Equal(t, surgery.EventSurgeryScheduled, got.Type)
	assert.Equal(t, int64(11), got.Payload.RequestID)
	assert.Equal(t, "HEART", got.Payload.Category)
	assert.Equal(t, 2, got.Payload.RoomID)
}

func TestEventPublisher_RecordError(t *testing.T) {
	stub := &publishStub{err: errors.New("connection reset")}
	pub := NewEventPublisher(stub, "surgery:events")

	err := pub.Record(context.Background(), surgery.Event{Type: surgery.EventSurgeryQueued})
	require.ErrorContains(t, err, "publish SURGERY_QUEUED")
}
