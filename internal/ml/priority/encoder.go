// Package priority implements the Feature Encoder and Priority Predictor.
// The predictor is treated as an opaque artifact: the engine calls Predict
// and optionally reads Importances, never the model's internals.
package priority

import (
	"time"

	"github.com/optimatime/optimatime/internal/domain"
)

// FeatureOrder documents the fixed 9-dimensional contract the predictor was
// trained on. Changing the order would silently corrupt predictions.
var FeatureOrder = [9]string{
	"user_type",
	"duration_minutes",
	"hours_until_deadline",
	"importance",
	"task_type",
	"preferred_time",
	"energy",
	"plan_day_of_week",
	"is_weekend",
}

var userTypeMap = map[string]float64{"student": 0, "worker": 1, "entrepreneur": 2}

var importanceMap = map[domain.Importance]float64{
	domain.ImportanceLow:    0,
	domain.ImportanceMedium: 1,
	domain.ImportanceHigh:   2,
}

var categoryMap = map[domain.Category]float64{
	domain.CategoryStudy:    0,
	domain.CategoryWork:     1,
	domain.CategoryMeeting:  2,
	domain.CategoryPersonal: 3,
	domain.CategorySocial:   4,
	domain.CategoryAdmin:    5,
}

var preferredMap = map[domain.PreferredTime]float64{
	domain.PreferMorning:   0,
	domain.PreferAfternoon: 1,
	domain.PreferEvening:   2,
	domain.PreferAnytime:   3,
}

var energyMap = map[domain.Energy]float64{
	domain.EnergyLow:    0,
	domain.EnergyMedium: 1,
	domain.EnergyHigh:   2,
}

// Context carries the scheduling-time values the encoder needs beyond the
// task itself: the user's profile tag and the candidate day being scored.
type Context struct {
	UserProfile string // "student" | "worker" | "entrepreneur", unknown → student(0)
	PlanDate    time.Time
	SlotStart   time.Time // the candidate slot's start instant, for hours-until-deadline
}

// Encode maps a task and scheduling context into the fixed 9-float vector.
// Unknown strings fall back to documented defaults rather than erroring,
// since the encoder must always produce a vector for the predictor.
func Encode(t domain.Task, ctx Context) []float64 {
	hoursUntilDeadline := 0.0
	if !t.Deadline.IsZero() {
		hoursUntilDeadline = t.Deadline.Sub(ctx.SlotStart).Hours()
	}
	if hoursUntilDeadline < 0 {
		hoursUntilDeadline = 0
	}

	weekdayMon0 := (int(ctx.PlanDate.Weekday()) + 6) % 7 // Sunday=0 → 6, Monday=1 → 0
	isWeekend := 0.0
	if weekdayMon0 >= 5 {
		isWeekend = 1.0
	}

	return []float64{
		lookup(userTypeMap, ctx.UserProfile, 0),
		float64(t.DurationMinutes()),
		hoursUntilDeadline,
		lookupImportance(t.Importance),
		lookupCategory(t.Category),
		lookupPreferred(t.Preferred),
		lookupEnergy(t.Energy),
		float64(weekdayMon0),
		isWeekend,
	}
}

func lookup(m map[string]float64, key string, fallback float64) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

func lookupImportance(v domain.Importance) float64 {
	if f, ok := importanceMap[v]; ok {
		return f
	}
	return importanceMap[domain.ImportanceMedium]
}

func lookupCategory(v domain.Category) float64 {
	if f, ok := categoryMap[v]; ok {
		return f
	}
	return categoryMap[domain.CategoryStudy]
}

func lookupPreferred(v domain.PreferredTime) float64 {
	if f, ok := preferredMap[v]; ok {
		return f
	}
	return preferredMap[domain.PreferAnytime]
}

func lookupEnergy(v domain.Energy) float64 {
	if f, ok := energyMap[v]; ok {
		return f
	}
	return energyMap[domain.EnergyMedium]
}
