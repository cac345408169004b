package scheduler

import (
	"math/rand"
	"sort"
	"time"

	"github.com/optimatime/optimatime/internal/domain"
)

// placementCandidate is one feasible start index for a task, together with
// everything needed to rank it.
type placementCandidate struct {
	cost           float64
	centerDistance float64
	earlyStart     int
	startIdx       int
}

func canPlace(occupied []string, daySlots []time.Time, startIdx, requiredSlots int, latestEnd time.Time) bool {
	endIdx := startIdx + requiredSlots
	if endIdx > len(daySlots) {
		return false
	}
	if !daySlots[endIdx-1].Before(latestEnd) {
		return false
	}
	for i := startIdx; i < endIdx; i++ {
		if occupied[i] != "" {
			return false
		}
	}
	return true
}

// fragmentationPenalty discourages placements that leave a short, unusable
// sliver of free time adjacent to an occupied slot.
func fragmentationPenalty(occupied []string, startIdx, requiredSlots int) float64 {
	n := len(occupied)
	endIdx := startIdx + requiredSlots
	penalty := 0.0

	leftGap := 0
	i := startIdx - 1
	for i >= 0 && occupied[i] == "" {
		leftGap++
		i--
	}
	if leftGap > 0 && leftGap < 2 && i >= 0 && occupied[i] != "" {
		penalty += 1.0
	}

	rightGap := 0
	i = endIdx
	for i < n && occupied[i] == "" {
		rightGap++
		i++
	}
	if rightGap > 0 && rightGap < 2 && i < n && occupied[i] != "" {
		penalty += 1.0
	}

	return penalty * 2.0
}

type costParams struct {
	occupied           []string
	daySlots           []time.Time
	startIdx           int
	requiredSlots      int
	latestEnd          time.Time
	prefStart, prefEnd int
	taskEnergy         domain.Energy
	durationMinutes    int
	hoursUntilDeadline float64
}

// placementCost scores a candidate start index: lower is better. Four
// independent terms — preference mismatch, deadline urgency, energy
// mismatch, and schedule fragmentation — are summed.
func placementCost(p costParams) float64 {
	preferredPenalty := 4.0
	if p.startIdx >= p.prefStart && p.startIdx < p.prefEnd {
		preferredPenalty = 0.0
	}

	endDt := p.daySlots[p.startIdx].Add(time.Duration(p.durationMinutes) * time.Minute)
	slackMinutes := p.latestEnd.Sub(endDt).Minutes()
	if slackMinutes < 0 {
		slackMinutes = 0
	}
	urgencyPenalty := 0.0
	if p.hoursUntilDeadline < 48.0 {
		urgencyWeight := (48.0 - p.hoursUntilDeadline) / 48.0
		if slackMinutes < 240.0 {
			urgencyPenalty = ((240.0 - slackMinutes) / 240.0) * 6.0 * urgencyWeight
		}
	}

	energyMismatchPenalty := 0.0
	startHour := p.daySlots[p.startIdx].Hour()
	if p.taskEnergy == domain.EnergyHigh && startHour >= 17 {
		energyMismatchPenalty = 2.0
	} else if p.taskEnergy == domain.EnergyLow && startHour < 12 {
		energyMismatchPenalty = 2.0
	}

	frag := fragmentationPenalty(p.occupied, p.startIdx, p.requiredSlots)

	return preferredPenalty + urgencyPenalty + energyMismatchPenalty + frag
}

// bestStartSlot ranks every feasible start index by (cost, distance from
// the preferred window's center, early-start tiebreak, index), and returns
// the winner. When feedback strength is low, a seeded RNG occasionally (10%
// of the time) picks uniformly among the three lowest-cost candidates
// instead, so the schedule does not become mechanically identical run after
// run while feedback is still thin.
func bestStartSlot(
	occupied []string,
	daySlots []time.Time,
	requiredSlots int,
	latestEnd time.Time,
	prefStart, prefEnd int,
	taskEnergy domain.Energy,
	durationMinutes int,
	hoursUntilDeadline float64,
	feedbackStrength float64,
	rng *rand.Rand,
) (int, bool) {
	nSlots := len(daySlots)

	prefCenter := float64(nSlots-1) / 2.0
	if prefEnd > prefStart {
		prefCenter = float64(prefStart+prefEnd-1) / 2.0
	}

	var candidates []placementCandidate
	type costIdx struct {
		cost float64
		idx  int
	}
	var byCost []costIdx

	for startIdx := 0; startIdx <= nSlots-requiredSlots; startIdx++ {
		if !canPlace(occupied, daySlots, startIdx, requiredSlots, latestEnd) {
			continue
		}
		cost := placementCost(costParams{
			occupied:        occupied,
			daySlots:        daySlots,
			startIdx:        startIdx,
			requiredSlots:   requiredSlots,
			latestEnd:       latestEnd,
			prefStart:       prefStart,
			prefEnd:         prefEnd,
			taskEnergy:      taskEnergy,
			durationMinutes: durationMinutes,
			hoursUntilDeadline: hoursUntilDeadline,
		})
		centerDistance := float64(startIdx) - prefCenter
		if centerDistance < 0 {
			centerDistance = -centerDistance
		}
		earlyStart := 0
		if startIdx == 0 {
			earlyStart = 1
		}
		candidates = append(candidates, placementCandidate{cost, centerDistance, earlyStart, startIdx})
		byCost = append(byCost, costIdx{cost, startIdx})
	}

	if len(candidates) == 0 {
		return 0, false
	}

	if feedbackStrength < 0.4 && rng.Float64() < 0.10 {
		sort.Slice(byCost, func(i, j int) bool { return byCost[i].cost < byCost[j].cost })
		top := byCost
		if len(top) > 3 {
			top = top[:3]
		}
		return top[rng.Intn(len(top))].idx, true
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.cost != b.cost {
			return a.cost < b.cost
		}
		if a.centerDistance != b.centerDistance {
			return a.centerDistance < b.centerDistance
		}
		if a.earlyStart != b.earlyStart {
			return a.earlyStart < b.earlyStart
		}
		return a.startIdx < b.startIdx
	})
	return candidates[0].startIdx, true
}
