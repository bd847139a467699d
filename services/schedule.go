package services

import "fmt"

// ScheduleTask is one phase of the construction programme.
type ScheduleTask struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Duration     string   `json:"duration"`
	MinWeeks     int      `json:"minWeeks"`
	MaxWeeks     int      `json:"maxWeeks"`
	Dependencies []string `json:"dependencies"`
	Materials    []string `json:"materials"`
	Labor        []string `json:"labor"`
}

var baseSchedule = []ScheduleTask{
	{ID: "1", Name: "Site Preparation & Excavation", MinWeeks: 1, MaxWeeks: 2,
		Dependencies: []string{}, Materials: []string{"Fuel", "Equipment rental"}, Labor: []string{"Excavator operator", "General laborers"}},
	{ID: "2", Name: "Foundation Work", MinWeeks: 2, MaxWeeks: 3,
		Dependencies: []string{"1"}, Materials: []string{"Concrete", "Steel reinforcement", "Formwork"}, Labor: []string{"Mason", "Steel fixer", "General laborers"}},
	{ID: "3", Name: "Superstructure", MinWeeks: 4, MaxWeeks: 5,
		Dependencies: []string{"2"}, Materials: []string{"Blocks", "Cement", "Steel", "Timber"}, Labor: []string{"Mason", "Carpenter", "Steel fixer"}},
	{ID: "4", Name: "Roofing", MinWeeks: 2, MaxWeeks: 2,
		Dependencies: []string{"3"}, Materials: []string{"Iron sheets", "Timber", "Nails"}, Labor: []string{"Carpenter", "Roofer"}},
	{ID: "5", Name: "Electrical & Plumbing", MinWeeks: 2, MaxWeeks: 3,
		Dependencies: []string{"4"}, Materials: []string{"Cables", "Pipes", "Fittings"}, Labor: []string{"Electrician", "Plumber"}},
	{ID: "6", Name: "Finishing Works", MinWeeks: 3, MaxWeeks: 4,
		Dependencies: []string{"5"}, Materials: []string{"Tiles", "Paint", "Fixtures"}, Labor: []string{"Tiler", "Painter", "General laborers"}},
}

// ConstructionSchedule returns the six-phase programme. Each storey above
// the first adds the superstructure duration again.
func ConstructionSchedule(floors int) []ScheduleTask {
	out := make([]ScheduleTask, len(baseSchedule))
	for i, t := range baseSchedule {
		if t.ID == "3" && floors > 1 {
			t.MinWeeks *= floors
			t.MaxWeeks *= floors
		}
		t.Duration = formatWeeks(t.MinWeeks, t.MaxWeeks)
		out[i] = t
	}
	return out
}

// ScheduleWeeks returns the shortest and longest total duration in weeks.
// The phases run strictly in sequence.
func ScheduleWeeks(tasks []ScheduleTask) (minWeeks, maxWeeks int) {
	for _, t := range tasks {
		minWeeks += t.MinWeeks
		maxWeeks += t.MaxWeeks
	}
	return minWeeks, maxWeeks
}

// ValidateSchedule checks that every dependency names an earlier task.
func ValidateSchedule(tasks []ScheduleTask) error {
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			if !seen[dep] {
				return fmt.Errorf("task %s (%s) depends on %s which is not scheduled before it", t.ID, t.Name, dep)
			}
		}
		seen[t.ID] = true
	}
	return nil
}

func formatWeeks(lo, hi int) string {
	if lo == hi {
		if lo == 1 {
			return "1 week"
		}
		return fmt.Sprintf("%d weeks", lo)
	}
	return fmt.Sprintf("%d-%d weeks", lo, hi)
}
