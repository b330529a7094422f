package surgery

import (
	"fmt"
	"time"
)

type Machine string

const (
	MachineMRI Machine = "MRI"
	MachineCT  Machine = "CT"
	MachineECG Machine = "ECG"
)

// ParseMachine resolves a machine token from the closed set.
func ParseMachine(s string) (Machine, error) {
	switch m := Machine(s); m {
	case MachineMRI, MachineCT, MachineECG:
		return m, nil
	}
	return "", fmt.Errorf("unknown machine type %q", s)
}

// Category is the requested procedure type, keyed by the doctor specialty.
type Category string

const (
	CategoryHeart Category = "HEART"
	CategoryBrain Category = "BRAIN"
)

// ParseCategory resolves a doctor type token. Unknown tokens fail with ErrUnknownCategory.
func ParseCategory(token string) (Category, error) {
	switch c := Category(token); c {
	case CategoryHeart, CategoryBrain:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, token)
}

type RequestStatus string

const (
	StatusInQueue   RequestStatus = "IN_QUEUE"
	StatusScheduled RequestStatus = "SCHEDULED"
)

// Slot is a candidate or reserved interval on one room.
type Slot struct {
	RoomID    int
	StartTime time.Time
	EndTime   time.Time
}

// Booking is a reserved interval in a room's schedule.
type Booking struct {
	Start time.Time
	End   time.Time
}

func (b Booking) overlaps(start, end time.Time) bool {
	return b.Start.Before(end) && start.Before(b.End)
}

// Request is an operation request. The three scheduled fields are either all
// set (SCHEDULED) or all nil (IN_QUEUE).
type Request struct {
	ID                 int64
	Category           Category
	RequestedAt        time.Time
	Status             RequestStatus
	ScheduledRoomID    *int
	ScheduledStartTime *time.Time
	ScheduledEndTime   *time.Time
}

func newRequest(id int64, category Category, requestedAt time.Time) *Request {
	return &Request{
		ID:          id,
		Category:    category,
		RequestedAt: requestedAt,
		Status:      StatusInQueue,
	}
}

// markScheduled is the only transition a request makes: IN_QUEUE -> SCHEDULED.
func (r *Request) markScheduled(slot Slot) {
	roomID := slot.RoomID
	start := slot.StartTime
	end := slot.EndTime

	r.Status = StatusScheduled
	r.ScheduledRoomID = &roomID
	r.ScheduledStartTime = &start
	r.ScheduledEndTime = &end
}

// snapshot returns a copy that shares no pointers with the receiver.
func (r *Request) snapshot() Request {
	out := *r
	if r.ScheduledRoomID != nil {
		id := *r.ScheduledRoomID
		out.ScheduledRoomID = &id
	}
	if r.ScheduledStartTime != nil {
		t := *r.ScheduledStartTime
		out.ScheduledStartTime = &t
	}
	if r.ScheduledEndTime != nil {
		t := *r.ScheduledEndTime
		out.ScheduledEndTime = &t
	}
	return out
}

// RoomView is a read-only copy of a room's state.
type RoomView struct {
	ID       int
	Machines []Machine
	Bookings []Booking
}
