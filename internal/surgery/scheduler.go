package surgery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const DefaultHorizonDays = 7

// recordTimeout bounds event delivery after a Schedule call.
const recordTimeout = 5 * time.Second

type SchedulerConfig struct {
	HorizonDays int              // days searched ahead, default 7
	Clock       func() time.Time // default time.Now
	Recorder    EventRecorder    // optional
	Logger      *zerolog.Logger  // default no-op
}

// Scheduler owns the room pool and the waiting queue. Every Schedule call runs
// under one mutex, from queue drain through reservation.
type Scheduler struct {
	mu        sync.Mutex
	rooms     []*OperatingRoom
	roomsByID map[int]*OperatingRoom
	queue     []*Request
	requests  map[int64]*Request
	lastID    int64

	horizonDays int
	now         func() time.Time
	recorder    EventRecorder
	log         zerolog.Logger
}

func NewScheduler(rooms []*OperatingRoom, cfg SchedulerConfig) *Scheduler {
	s := &Scheduler{
		rooms:       append([]*OperatingRoom(nil), rooms...),
		roomsByID:   make(map[int]*OperatingRoom, len(rooms)),
		requests:    make(map[int64]*Request),
		horizonDays: cfg.HorizonDays,
		now:         cfg.Clock,
		recorder:    cfg.Recorder,
		log:         zerolog.Nop(),
	}
	for _, r := range s.rooms {
		s.roomsByID[r.ID()] = r
	}
	if s.horizonDays <= 0 {
		s.horizonDays = DefaultHorizonDays
	}
	if s.now == nil {
		s.now = time.Now
	}
	if cfg.Logger != nil {
		s.log = cfg.Logger.With().Str("component", "scheduler").Logger()
	}
	return s
}

// Schedule registers a new operation request for the doctor type and tries to
// place it in the earliest slot across all rooms. Queued requests are retried
// first. A request that cannot be placed is returned IN_QUEUE; only an unknown
// doctor type is reported as an error.
func (s *Scheduler) Schedule(ctx context.Context, doctorType string) (Request, error) {
	category, err := ParseCategory(doctorType)
	if err != nil {
		return Request{}, err
	}
	requestedAt := s.now()

	s.mu.Lock()
	req, events, err := s.scheduleLocked(category, requestedAt)
	s.mu.Unlock()

	// the bookings already exist, so their events outlive a cancelled caller
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	s.recordEvents(recordCtx, events)
	return req, err
}

func (s *Scheduler) scheduleLocked(category Category, requestedAt time.Time) (Request, []Event, error) {
	now := truncateToMinute(s.now())

	events := s.drainQueue(now)

	s.lastID++
	req := newRequest(s.lastID, category, requestedAt)

	slot, found, err := s.findBestSlot(category, now)
	if err != nil {
		return Request{}, events, fmt.Errorf("schedule request %d: %w", req.ID, err)
	}
	s.requests[req.ID] = req

	if !found {
		s.queue = append(s.queue, req)
		s.log.Info().
			Int64("request_id", req.ID).
			Str("category", string(category)).
			Int("horizon_days", s.horizonDays).
			Msg("no available rooms in horizon, request queued")
		events = append(events, Event{Type: EventSurgeryQueued, Request: req.snapshot(), OccurredAt: now})
		return req.snapshot(), events, nil
	}

	s.book(req, slot)
	s.log.Info().
		Int64("request_id", req.ID).
		Str("category", string(category)).
		Int("room_id", slot.RoomID).
		Time("start_time", slot.StartTime).
		Msg("request scheduled")
	events = append(events, Event{Type: EventSurgeryScheduled, Request: req.snapshot(), OccurredAt: now})
	return req.snapshot(), events, nil
}

// drainQueue retries every queued request in arrival order. Requests that
// still cannot be placed keep their relative order.
func (s *Scheduler) drainQueue(now time.Time) []Event {
	if len(s.queue) == 0 {
		return nil
	}

	var events []Event
	remaining := make([]*Request, 0, len(s.queue))
	for _, req := range s.queue {
		slot, found, err := s.findBestSlot(req.Category, now)
		if err != nil {
			s.log.Error().Err(err).Int64("request_id", req.ID).Msg("drain: slot search failed, request stays queued")
			remaining = append(remaining, req)
			continue
		}
		if !found {
			remaining = append(remaining, req)
			continue
		}

		s.book(req, slot)
		s.log.Info().
			Int64("request_id", req.ID).
			Str("category", string(req.Category)).
			Int("room_id", slot.RoomID).
			Time("start_time", slot.StartTime).
			Msg("drained and scheduled queued request")
		events = append(events, Event{Type: EventQueuedSurgeryScheduled, Request: req.snapshot(), OccurredAt: now})
	}
	s.queue = remaining
	return events
}

// findBestSlot returns the earliest slot over all rooms supporting the
// category. Ties go to the room that comes first in the pool. Nothing is reserved.
func (s *Scheduler) findBestSlot(category Category, now time.Time) (Slot, bool, error) {
	var (
		best  Slot
		found bool
	)
	for _, room := range s.rooms {
		if !room.Supports(category) {
			continue
		}
		duration, err := room.SurgeryDuration(category)
		if err != nil {
			return Slot{}, false, err
		}
		slot, ok := room.FindEarliestSlot(now, duration, s.horizonDays)
		if ok && (!found || slot.StartTime.Before(best.StartTime)) {
			best, found = slot, true
		}
	}
	return best, found, nil
}

// book reserves the slot on its room, then marks the request scheduled.
func (s *Scheduler) book(req *Request, slot Slot) {
	s.roomsByID[slot.RoomID].Reserve(slot)
	req.markScheduled(slot)
}

func (s *Scheduler) recordEvents(ctx context.Context, events []Event) {
	if s.recorder == nil {
		return
	}
	for _, ev := range events {
		if err := s.recorder.Record(ctx, ev); err != nil {
			s.log.Warn().Err(err).
				Str("event_type", ev.Type).
				Int64("request_id", ev.Request.ID).
				Msg("failed to record scheduling event")
		}
	}
}

// Request returns a copy of the request with the given id.
func (s *Scheduler) Request(id int64) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return Request{}, fmt.Errorf("request %d: %w", id, ErrRequestNotFound)
	}
	return req.snapshot(), nil
}

// Queue returns copies of the queued requests, oldest first.
func (s *Scheduler) Queue() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Request, 0, len(s.queue))
	for _, req := range s.queue {
		out = append(out, req.snapshot())
	}
	return out
}

// Rooms returns copies of every room's machines and bookings.
func (s *Scheduler) Rooms() []RoomView {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]RoomView, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r.view())
	}
	return out
}

func truncateToMinute(t time.Time) time.Time {
	y, mo, d := t.Date()
	h, mi, _ := t.Clock()
	return time.Date(y, mo, d, h, mi, 0, 0, t.Location())
}
