package surgery

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

const (
	EventSurgeryScheduled       = "SURGERY_SCHEDULED"
	EventSurgeryQueued          = "SURGERY_QUEUED"
	EventQueuedSurgeryScheduled = "QUEUED_SURGERY_SCHEDULED"
)

// Event describes one outcome of a scheduling decision.
type Event struct {
	Type       string
	Request    Request
	OccurredAt time.Time
}

// EventRecorder receives scheduling events after the scheduler has released its lock.
type EventRecorder interface {
	Record(ctx context.Context, ev Event) error
}

// MultiRecorder delivers each event to every recorder, collecting failures.
type MultiRecorder []EventRecorder

func (m MultiRecorder) Record(ctx context.Context, ev Event) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// payload is the serialized form shared by the event store and publishers.
type payload struct {
	RequestID int64      `json:"request_id"`
	Category  Category   `json:"doctor_type"`
	Status    string     `json:"status"`
	RoomID    *int       `json:"room_id,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// MarshalPayload encodes the event body as JSON.
func (ev Event) MarshalPayload() ([]byte, error) {
	return json.Marshal(payload{
		RequestID: ev.Request.ID,
		Category:  ev.Request.Category,
		Status:    string(ev.Request.Status),
		RoomID:    ev.Request.ScheduledRoomID,
		StartTime: ev.Request.ScheduledStartTime,
		EndTime:   ev.Request.ScheduledEndTime,
	})
}
