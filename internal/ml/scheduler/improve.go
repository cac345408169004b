package scheduler

import (
	"time"

	"github.com/optimatime/optimatime/internal/domain"
)

// assignment records where a task ended up so shiftEarlier can evaluate
// moving it without re-deriving its placement parameters.
type assignment struct {
	taskID             string
	startIdx, endIdx   int
	requiredSlots      int
	latestEnd          time.Time
	prefStart, prefEnd int
	energy             domain.Energy
	durationMinutes    int
	hoursUntilDeadline float64
}

// shiftEarlier is the local-improvement pass: for each placed task, in
// insertion order, try every earlier start index and take the first one
// whose cost (computed with that task's own slots treated as free) is
// strictly better than its current cost.
func shiftEarlier(order []string, assignments map[string]*assignment, occupied []string, daySlots []time.Time) {
	nSlots := len(daySlots)

	for _, taskID := range order {
		info, ok := assignments[taskID]
		if !ok {
			continue
		}

		tempOccupied := make([]string, len(occupied))
		for i, v := range occupied {
			if v == taskID {
				tempOccupied[i] = ""
			} else {
				tempOccupied[i] = v
			}
		}

		currentCost := placementCost(costParams{
			occupied:           tempOccupied,
			daySlots:           daySlots,
			startIdx:           info.startIdx,
			requiredSlots:      info.requiredSlots,
			latestEnd:          info.latestEnd,
			prefStart:          info.prefStart,
			prefEnd:            info.prefEnd,
			taskEnergy:         info.energy,
			durationMinutes:    info.durationMinutes,
			hoursUntilDeadline: info.hoursUntilDeadline,
		})

		for startIdx := 0; startIdx < info.startIdx; startIdx++ {
			endIdx := startIdx + info.requiredSlots
			if endIdx > nSlots || !daySlots[endIdx-1].Before(info.latestEnd) {
				break
			}
			free := true
			for i := startIdx; i < endIdx; i++ {
				if tempOccupied[i] != "" {
					free = false
					break
				}
			}
			if !free {
				continue
			}

			candidateCost := placementCost(costParams{
				occupied:           tempOccupied,
				daySlots:           daySlots,
				startIdx:           startIdx,
				requiredSlots:      info.requiredSlots,
				latestEnd:          info.latestEnd,
				prefStart:          info.prefStart,
				prefEnd:            info.prefEnd,
				taskEnergy:         info.energy,
				durationMinutes:    info.durationMinutes,
				hoursUntilDeadline: info.hoursUntilDeadline,
			})
			if candidateCost >= currentCost {
				continue
			}

			for i := info.startIdx; i < info.endIdx; i++ {
				occupied[i] = ""
			}
			for i := startIdx; i < endIdx; i++ {
				occupied[i] = taskID
			}
			info.startIdx = startIdx
			info.endIdx = endIdx
			break
		}
	}
}
