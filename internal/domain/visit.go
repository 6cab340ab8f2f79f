package domain

// ItemKind distinguishes where a schedulable item came from.
type ItemKind string

const (
	KindNewRequest    ItemKind = "REQUEST"
	KindExistingVisit ItemKind = "APPOINTMENT"
)

// VisitItem is the unit the route optimizer schedules: either a pending
// appointment request or an already-booked visit being re-sequenced.
// Items are built by the caller immediately before an optimizer run and are
// not retained between calls.
type VisitItem struct {
	ID        string
	Kind      ItemKind
	PatientID string
	Name      string
	Address   string
	Coord     Coordinates
	Slot      Slot
	Duration  int    // minutes; DefaultVisitDuration when unset
	Symptoms  string // free text, opaque to the algorithms
}

// VisitDuration returns the item's duration, defaulting when unset.
func (v VisitItem) VisitDuration() int {
	if v.Duration <= 0 {
		return DefaultVisitDuration
	}
	return v.Duration
}

// ScheduledStop is a VisitItem annotated with its computed place in a route.
// Produced only by the optimizer and re-sequencer; never mutated in place.
type ScheduledStop struct {
	VisitItem
	ETA           string // arrival clock time, "HH:MM"
	TravelMinutes int    // travel from the previous stop (or depot)
	Priority      int    // 1-based position within its half-day
}

// DaySchedule is one optimizer pass over a doctor's day: the ordered AM and PM
// stop lists plus everything the greedy pass could not place. Unscheduled
// items are surfaced rather than dropped so callers can report them.
type DaySchedule struct {
	AM          []ScheduledStop
	PM          []ScheduledStop
	Unscheduled []VisitItem
}
