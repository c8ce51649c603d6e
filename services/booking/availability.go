package booking

import (
	"sort"
	"sync/atomic"
	"time"

	"clinicbook/models"

	"go.uber.org/zap"
)

// Resolver derives bookable availability from a fetched schedule snapshot.
// Both the date list and the per-date slot list come from the same snapshot,
// so the two stages of the pick-date-then-pick-time funnel can never disagree.
type Resolver struct {
	logger    *zap.Logger
	anomalies atomic.Int64
}

// NewResolver builds a Resolver.
func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Anomalies returns how many slots were skipped for malformed timestamps since
// the resolver was created. Exposed so data-quality regressions stay visible.
func (r *Resolver) Anomalies() int64 {
	return r.anomalies.Load()
}

// parsedSlot pairs a slot with its decoded start time.
type parsedSlot struct {
	slot  models.Slot
	start time.Time
}

// parseFree returns the free slots with valid timestamps, decoded. A slot
// whose start or end does not parse is skipped and counted rather than
// failing the whole schedule; malformed data degrades gracefully.
func (r *Resolver) parseFree(sched models.Schedule) []parsedSlot {
	out := make([]parsedSlot, 0, len(sched.Slots))
	for _, s := range sched.Slots {
		if s.Booked {
			continue
		}
		start, err := time.Parse(time.RFC3339, s.Start)
		if err != nil {
			r.skip(sched.ID, s.Start, err)
			continue
		}
		if _, err := time.Parse(time.RFC3339, s.End); err != nil {
			r.skip(sched.ID, s.End, err)
			continue
		}
		out = append(out, parsedSlot{slot: s, start: start})
	}
	return out
}

func (r *Resolver) skip(scheduleID, stamp string, err error) {
	r.anomalies.Add(1)
	r.logger.Warn("skipping slot with malformed timestamp",
		zap.String("scheduleID", scheduleID),
		zap.String("timestamp", stamp),
		zap.Error(err))
}

// FreeFutureSlots returns the unbooked slots starting at or after the start of
// now's day, ascending by start time. An empty schedule yields empty results.
func (r *Resolver) FreeFutureSlots(sched models.Schedule, now time.Time) []models.Slot {
	parsed := r.freeFuture(sched, now)
	slots := make([]models.Slot, len(parsed))
	for i, p := range parsed {
		slots[i] = p.slot
	}
	return slots
}

func (r *Resolver) freeFuture(sched models.Schedule, now time.Time) []parsedSlot {
	dayStart := startOfDay(now)
	parsed := r.parseFree(sched)
	future := parsed[:0]
	for _, p := range parsed {
		if !p.start.Before(dayStart) {
			future = append(future, p)
		}
	}
	sort.SliceStable(future, func(i, j int) bool {
		return future[i].start.Before(future[j].start)
	})
	return future
}

// DatesWithAvailability returns the sorted distinct calendar dates
// ("2006-01-02", in each slot's own zone) that have at least one free future
// slot.
func (r *Resolver) DatesWithAvailability(sched models.Schedule, now time.Time) []string {
	seen := make(map[string]struct{})
	var dates []string
	for _, p := range r.freeFuture(sched, now) {
		date := p.start.Format("2006-01-02")
		if _, ok := seen[date]; ok {
			continue
		}
		seen[date] = struct{}{}
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// SlotsOnDate returns the free future slots whose start falls on the given
// calendar date, ascending by start time.
func (r *Resolver) SlotsOnDate(sched models.Schedule, now time.Time, date string) []models.Slot {
	var slots []models.Slot
	for _, p := range r.freeFuture(sched, now) {
		if p.start.Format("2006-01-02") == date {
			slots = append(slots, p.slot)
		}
	}
	return slots
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
