package services

import "math"

// Floor plan zoom limits, in percent.
const (
	MinZoom     = 50
	MaxZoom     = 200
	ZoomStep    = 25
	DefaultZoom = 100
)

// ClampZoom snaps zoom down to a ZoomStep multiple within [MinZoom, MaxZoom].
// Zero selects DefaultZoom.
func ClampZoom(zoom int) int {
	if zoom == 0 {
		return DefaultZoom
	}
	zoom -= zoom % ZoomStep
	return max(MinZoom, min(MaxZoom, zoom))
}

// PlacedRoom is a room positioned on the plan. Coordinates are in metres
// from the top-left corner.
type PlacedRoom struct {
	Room
	X, Y, Width, Depth float64
}

// FloorPlan is a rectangular footprint tiled by rooms.
type FloorPlan struct {
	Width, Depth float64
	Rooms        []PlacedRoom
}

// planAspect is the width-to-depth ratio of the footprint.
const planAspect = 4.0 / 3.0

// LayoutFloorPlan tiles rooms in list order into rows across a 4:3
// footprint. Each row spans the full width and every room keeps its area,
// so the plan covers exactly the sum of the room areas.
func LayoutFloorPlan(rooms []Room) FloorPlan {
	var total float64
	for _, r := range rooms {
		total += r.Area
	}
	if len(rooms) == 0 || total <= 0 {
		return FloorPlan{}
	}

	width := math.Sqrt(total * planAspect)
	rowCount := int(math.Ceil(math.Sqrt(float64(len(rooms)) / planAspect)))
	perRow := int(math.Ceil(float64(len(rooms)) / float64(rowCount)))

	plan := FloorPlan{Width: width}
	for start := 0; start < len(rooms); start += perRow {
		row := rooms[start:min(start+perRow, len(rooms))]
		var rowArea float64
		for _, r := range row {
			rowArea += r.Area
		}
		depth := rowArea / width
		x := 0.0
		for _, r := range row {
			w := r.Area / depth
			plan.Rooms = append(plan.Rooms, PlacedRoom{Room: r, X: x, Y: plan.Depth, Width: w, Depth: depth})
			x += w
		}
		plan.Depth += depth
	}
	return plan
}
