package services

import (
	"math"
	"testing"
)

func TestClampZoom(t *testing.T) {
	tests := map[int]int{
		0:   100,
		100: 100,
		125: 125,
		130: 125,
		25:  50,
		-50: 50,
		200: 200,
		275: 200,
	}
	for in, want := range tests {
		if got := ClampZoom(in); got != want {
			t.Errorf("ClampZoom(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestLayoutFloorPlan_PreservesAreas(t *testing.T) {
	design := BuildDesigns(sampleRequest())[0]
	plan := LayoutFloorPlan(design.Rooms)

	if len(plan.Rooms) != len(design.Rooms) {
		t.Fatalf("placed %d rooms, want %d", len(plan.Rooms), len(design.Rooms))
	}

	var total float64
	for i, pr := range plan.Rooms {
		if pr.Name != design.Rooms[i].Name {
			t.Errorf("room %d = %q, want %q", i, pr.Name, design.Rooms[i].Name)
		}
		if math.Abs(pr.Width*pr.Depth-pr.Area) > 1e-6 {
			t.Errorf("%s: %.2f x %.2f does not cover %.1f m²", pr.Name, pr.Width, pr.Depth, pr.Area)
		}
		if pr.X < 0 || pr.X+pr.Width > plan.Width+1e-6 {
			t.Errorf("%s extends outside the plan width", pr.Name)
		}
		total += pr.Area
	}
	if math.Abs(plan.Width*plan.Depth-total) > 1e-6 {
		t.Errorf("plan %.2f x %.2f does not match room total %.1f", plan.Width, plan.Depth, total)
	}
}

func TestLayoutFloorPlan_Deterministic(t *testing.T) {
	rooms := BuildDesigns(sampleRequest())[1].Rooms
	a, b := LayoutFloorPlan(rooms), LayoutFloorPlan(rooms)
	for i := range a.Rooms {
		if a.Rooms[i] != b.Rooms[i] {
			t.Fatalf("layout differs at room %d", i)
		}
	}
}

func TestLayoutFloorPlan_Empty(t *testing.T) {
	plan := LayoutFloorPlan(nil)
	if plan.Width != 0 || len(plan.Rooms) != 0 {
		t.Errorf("expected empty plan, got %+v", plan)
	}
}
