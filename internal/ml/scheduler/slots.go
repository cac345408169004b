// Package scheduler implements the Slot Builder, Placement Engine, Day
// Scheduler, and Explanation Builder: the core per-day scheduling pass that
// turns a priority-ranked task list into non-overlapping plan items.
package scheduler

import (
	"time"

	"github.com/optimatime/optimatime/internal/domain"
)

// SlotMinutes is the granularity of every placement decision. The spec fixes
// this at 30 minutes; sub-slot granularity is out of scope.
const SlotMinutes = 30

// BuildDaySlots returns the ordered list of 30-minute anchor instants within
// [startHour, endHour) on planDate. An empty or inverted range yields no
// slots.
func BuildDaySlots(planDate time.Time, startHour, endHour int) []time.Time {
	dayStart := time.Date(planDate.Year(), planDate.Month(), planDate.Day(), startHour, 0, 0, 0, time.UTC)
	dayEnd := time.Date(planDate.Year(), planDate.Month(), planDate.Day(), endHour, 0, 0, 0, time.UTC)

	var slots []time.Time
	for cur := dayStart; cur.Before(dayEnd); cur = cur.Add(SlotMinutes * time.Minute) {
		slots = append(slots, cur)
	}
	return slots
}

// occupiedExternal marks a slot as blocked by a pre-existing plan item
// rather than by a task placed during this pass, mirroring the Python
// scheduler's sentinel value of -1 for externally occupied slots.
const occupiedExternal = "\x00external\x00"

// ApplyOccupiedIntervals marks every slot overlapping one of the given
// [start, end) intervals as externally occupied.
func ApplyOccupiedIntervals(occupied []string, daySlots []time.Time, intervals [][2]time.Time) {
	if len(intervals) == 0 || len(daySlots) == 0 {
		return
	}
	dayStart := daySlots[0]
	dayEnd := daySlots[len(daySlots)-1].Add(SlotMinutes * time.Minute)

	for _, iv := range intervals {
		start, end := iv[0], iv[1]
		if !end.After(dayStart) || !start.Before(dayEnd) {
			continue
		}
		for idx, slotStart := range daySlots {
			slotEnd := slotStart.Add(SlotMinutes * time.Minute)
			if slotStart.Before(end) && slotEnd.After(start) {
				occupied[idx] = occupiedExternal
			}
		}
	}
}

// TimeWindowIndices maps a preferred time-of-day tag to a [start, end) slot
// index range, based on the configured working hours.
func TimeWindowIndices(pref domain.PreferredTime, nSlots, startHour, endHour int) (int, int) {
	hourToIdx := func(hour int) int {
		idx := ((hour - startHour) * 60) / SlotMinutes
		if idx < 0 {
			idx = 0
		}
		return idx
	}

	morningEnd := endHour
	if morningEnd > 12 {
		morningEnd = 12
	}
	afternoonStart := startHour
	if afternoonStart < 12 {
		afternoonStart = 12
	}
	afternoonEnd := endHour
	if afternoonEnd > 18 {
		afternoonEnd = 18
	}
	eveningStart := startHour
	if eveningStart < 18 {
		eveningStart = 18
	}

	switch pref {
	case domain.PreferMorning:
		end := hourToIdx(morningEnd)
		if end < 0 {
			end = 0
		}
		return 0, end
	case domain.PreferAfternoon:
		return hourToIdx(afternoonStart), hourToIdx(afternoonEnd)
	case domain.PreferEvening:
		return hourToIdx(eveningStart), nSlots
	default:
		return 0, nSlots
	}
}
