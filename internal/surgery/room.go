package surgery

import (
	"fmt"
	"slices"
	"sort"
	"time"
)

// slotStep is how far a candidate moves when the window boundary falls
// inside the required duration.
const slotStep = 15 * time.Minute

// WorkingHours is the daily window, as offsets from midnight. Both ends are inclusive.
type WorkingHours struct {
	Open  time.Duration
	Close time.Duration
}

var DefaultWorkingHours = WorkingHours{Open: 10 * time.Hour, Close: 18 * time.Hour}

func (h WorkingHours) Validate() error {
	// slots never cross midnight, so the window must close before it
	if h.Open < 0 || h.Close >= 24*time.Hour {
		return fmt.Errorf("working hours %s-%s out of day range", h.Open, h.Close)
	}
	if h.Close <= h.Open {
		return fmt.Errorf("working hours close %s must be after open %s", h.Close, h.Open)
	}
	return nil
}

func (h WorkingHours) contains(t time.Time) bool {
	tod := timeOfDay(t)
	return tod >= h.Open && tod <= h.Close
}

// fits reports whether [start, end] lies inside one day's window.
func (h WorkingHours) fits(start, end time.Time) bool {
	return h.contains(start) && h.contains(end) && startOfDay(start).Equal(startOfDay(end))
}

// opening returns the window opening on the calendar day of t.
func (h WorkingHours) opening(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, int(h.Open/time.Hour), int(h.Open%time.Hour/time.Minute), 0, 0, t.Location())
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func timeOfDay(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}

// procedure describes what a category needs from a room. When the room also
// has the accelerator machine the shorter duration applies.
type procedure struct {
	requires    Machine
	duration    time.Duration
	accelerator Machine
	accelerated time.Duration
}

var procedures = map[Category]procedure{
	CategoryHeart: {requires: MachineECG, duration: 3 * time.Hour},
	CategoryBrain: {requires: MachineMRI, duration: 3 * time.Hour, accelerator: MachineCT, accelerated: 2 * time.Hour},
}

// OperatingRoom owns its machines and an ascending list of bookings.
// It is not safe for concurrent use; the Scheduler serializes access.
type OperatingRoom struct {
	id       int
	machines map[Machine]struct{}
	hours    WorkingHours
	bookings []Booking
}

func NewOperatingRoom(id int, hours WorkingHours, machines ...Machine) *OperatingRoom {
	set := make(map[Machine]struct{}, len(machines))
	for _, m := range machines {
		set[m] = struct{}{}
	}
	return &OperatingRoom{
		id:       id,
		machines: set,
		hours:    hours,
	}
}

func (r *OperatingRoom) ID() int { return r.id }

func (r *OperatingRoom) has(m Machine) bool {
	_, ok := r.machines[m]
	return ok
}

// Supports reports whether the room has the machine the category requires.
func (r *OperatingRoom) Supports(c Category) bool {
	p, ok := procedures[c]
	return ok && r.has(p.requires)
}

// SurgeryDuration returns how long the category takes in this room.
func (r *OperatingRoom) SurgeryDuration(c Category) (time.Duration, error) {
	p, ok := procedures[c]
	if !ok {
		return 0, fmt.Errorf("room %d: %w: %q", r.id, ErrUnsupportedCategory, c)
	}
	if p.accelerator != "" && r.has(p.accelerator) {
		return p.accelerated, nil
	}
	return p.duration, nil
}

// FindEarliestSlot scans forward from notBefore for the first interval of the
// given duration that fits one day's working window and overlaps no booking.
// The search covers horizonDays calendar days starting with notBefore's date.
// It never mutates the room.
func (r *OperatingRoom) FindEarliestSlot(notBefore time.Time, duration time.Duration, horizonDays int) (Slot, bool) {
	current := notBefore
	if open := r.hours.opening(notBefore); current.Before(open) {
		current = open
	}
	lastDay := startOfDay(notBefore).AddDate(0, 0, horizonDays-1)

	for !startOfDay(current).After(lastDay) {
		if !r.hours.contains(current) {
			if open := r.hours.opening(current); current.Before(open) {
				current = open
			} else {
				current = r.hours.opening(startOfDay(current).AddDate(0, 0, 1))
			}
			continue
		}

		end := current.Add(duration)
		if !r.hours.fits(current, end) {
			current = current.Add(slotStep)
			continue
		}

		if conflict, ok := r.firstConflict(current, end); ok {
			current = conflict.End
			continue
		}

		return Slot{RoomID: r.id, StartTime: current, EndTime: end}, true
	}
	return Slot{}, false
}

func (r *OperatingRoom) firstConflict(start, end time.Time) (Booking, bool) {
	for _, b := range r.bookings {
		if b.overlaps(start, end) {
			return b, true
		}
	}
	return Booking{}, false
}

// Reserve inserts the slot keeping bookings ordered by start. It does not
// check for overlap; the slot must come from FindEarliestSlot on the current state.
func (r *OperatingRoom) Reserve(slot Slot) {
	i := sort.Search(len(r.bookings), func(i int) bool {
		return !r.bookings[i].Start.Before(slot.StartTime)
	})
	r.bookings = slices.Insert(r.bookings, i, Booking{Start: slot.StartTime, End: slot.EndTime})
}

// Bookings returns a copy of the room's schedule.
func (r *OperatingRoom) Bookings() []Booking {
	return slices.Clone(r.bookings)
}

// Machines returns the room's machines in a stable order.
func (r *OperatingRoom) Machines() []Machine {
	out := make([]Machine, 0, len(r.machines))
	for m := range r.machines {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}

func (r *OperatingRoom) view() RoomView {
	return RoomView{
		ID:       r.id,
		Machines: r.Machines(),
		Bookings: r.Bookings(),
	}
}
