package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
)

// ErrGenerationFailed is returned for every generator failure that is not a
// cancellation or deadline.
var ErrGenerationFailed = errors.New("design generation failed")

// Room is one space in a generated design.
type Room struct {
	Name string  `json:"name"`
	Type string  `json:"type"`
	Area float64 `json:"area"`
}

// Design is one candidate produced by the generator.
type Design struct {
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Variant      string               `json:"variant"`
	Bedrooms     int                  `json:"bedrooms"`
	Bathrooms    int                  `json:"bathrooms"`
	Floors       int                  `json:"floors"`
	BuildingType BuildingType         `json:"buildingType"`
	Style        Style                `json:"style"`
	Area         float64              `json:"area"`
	Cost         decimal.Decimal      `json:"cost"`
	Rooms        []Room               `json:"rooms"`
	Validation   StructuralValidation `json:"validation"`
}

// ProgressFunc receives generation progress in percent with a stage message.
type ProgressFunc func(percent int, message string)

// ProgressMessage returns the stage message shown for a progress percentage.
func ProgressMessage(percent int) string {
	switch {
	case percent < 20:
		return "Initializing AI models..."
	case percent < 40:
		return "Analyzing parameters..."
	case percent < 60:
		return "Generating floor plans..."
	case percent < 80:
		return "Optimizing design..."
	case percent < 95:
		return "Validating building codes..."
	default:
		return "Finalizing designs..."
	}
}

// progressCeiling is where simulated progress stalls until results are ready.
const progressCeiling = 90

// MockDesignGenerator simulates the design service: it waits Latency while
// reporting progress, then returns three deterministic candidates.
type MockDesignGenerator struct {
	Latency time.Duration
	Ticks   int
	Seed    uint64

	// Fail, when set, is consulted after the simulated wait. A non-nil error
	// is reported as ErrGenerationFailed.
	Fail func(DesignRequest) error

	Validator StructuralValidator
}

// NewMockDesignGenerator returns a generator with ten progress ticks.
func NewMockDesignGenerator(latency time.Duration, seed uint64) *MockDesignGenerator {
	return &MockDesignGenerator{Latency: latency, Ticks: 10, Seed: seed}
}

// Generate validates req, simulates latency and returns the candidates.
// Cancellation and deadlines are returned unwrapped as ctx.Err().
func (g *MockDesignGenerator) Generate(ctx context.Context, req DesignRequest, progress ProgressFunc) ([]Design, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(int, string) {}
	}

	if err := g.simulate(ctx, progress); err != nil {
		return nil, err
	}

	if g.Fail != nil {
		if err := g.Fail(req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
	}

	designs := BuildDesigns(req)
	for i := range designs {
		designs[i].Validation = g.Validator.Validate(req, designs[i])
	}

	progress(100, ProgressMessage(100))
	return designs, nil
}

func (g *MockDesignGenerator) simulate(ctx context.Context, progress ProgressFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	progress(0, ProgressMessage(0))
	if g.Latency <= 0 {
		return nil
	}

	ticks := g.Ticks
	if ticks <= 0 {
		ticks = 1
	}
	interval := g.Latency / time.Duration(ticks)
	if interval <= 0 {
		ticks, interval = 1, g.Latency
	}
	rng := rand.New(rand.NewPCG(g.Seed, g.Seed^0x9e3779b97f4a7c15))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	percent := 0
	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			percent = min(percent+5+rng.IntN(11), progressCeiling)
			progress(percent, ProgressMessage(percent))
		}
	}
	return nil
}

type designVariant struct {
	key         string
	areaFactor  float64
	costFactor  float64
	name        func(DesignRequest) string
	description func(DesignRequest) string
	commonRooms []Room
}

var designVariants = []designVariant{
	{
		key:        "modern",
		areaFactor: 0.6,
		costFactor: 0.95,
		name: func(r DesignRequest) string {
			return fmt.Sprintf("Modern %dBR %s", r.Bedrooms, TitleLocation(string(r.Style)))
		},
		description: func(r DesignRequest) string {
			return "Contemporary open-plan design optimized for " + TitleLocation(r.Location)
		},
		commonRooms: []Room{{Name: "Living Room", Type: "living"}, {Name: "Kitchen", Type: "kitchen"}, {Name: "Dining", Type: "dining"}},
	},
	{
		key:        "traditional",
		areaFactor: 0.55,
		costFactor: 0.88,
		name: func(r DesignRequest) string {
			return fmt.Sprintf("Traditional %dBR Layout", r.Bedrooms)
		},
		description: func(DesignRequest) string {
			return "Classic Kenyan design with separate living areas"
		},
		commonRooms: []Room{{Name: "Sitting Room", Type: "living"}, {Name: "Kitchen", Type: "kitchen"}, {Name: "Store", Type: "store"}},
	},
	{
		key:        "compact",
		areaFactor: 0.5,
		costFactor: 0.82,
		name: func(r DesignRequest) string {
			return fmt.Sprintf("Compact %dBR Efficient", r.Bedrooms)
		},
		description: func(DesignRequest) string {
			return "Space-efficient design maximizing functionality"
		},
		commonRooms: []Room{{Name: "Open Living", Type: "living"}, {Name: "Kitchen", Type: "kitchen"}},
	},
}

// roomWeights sets each room type's share of the floor area.
var roomWeights = map[string]float64{
	"living":   3,
	"kitchen":  1.6,
	"dining":   1.4,
	"store":    0.6,
	"bedroom":  2,
	"bathroom": 0.7,
}

// BuildDesigns returns the three deterministic candidates for req without
// simulating latency or running validation.
func BuildDesigns(req DesignRequest) []Design {
	designs := make([]Design, 0, len(designVariants))
	for _, v := range designVariants {
		area := math.Floor(req.PlotSize * v.areaFactor)
		cost := decimal.NewFromFloat(req.Budget).Mul(decimal.NewFromFloat(v.costFactor)).Floor()
		designs = append(designs, Design{
			Name:         v.name(req),
			Description:  v.description(req),
			Variant:      v.key,
			Bedrooms:     req.Bedrooms,
			Bathrooms:    req.Bathrooms,
			Floors:       req.Floors,
			BuildingType: req.BuildingType,
			Style:        req.Style,
			Area:         area,
			Cost:         cost,
			Rooms:        layoutRooms(v.commonRooms, req.Bedrooms, req.Bathrooms, area),
		})
	}
	return designs
}

func layoutRooms(common []Room, bedrooms, bathrooms int, area float64) []Room {
	rooms := make([]Room, 0, len(common)+bedrooms+bathrooms)
	rooms = append(rooms, common...)
	for i := 1; i <= bedrooms; i++ {
		name := fmt.Sprintf("Bedroom %d", i)
		if i == 1 {
			name = "Master Bedroom"
		}
		rooms = append(rooms, Room{Name: name, Type: "bedroom"})
	}
	for i := 1; i <= bathrooms; i++ {
		name := "Bathroom"
		if i > 1 {
			name = fmt.Sprintf("Bathroom %d", i)
		}
		rooms = append(rooms, Room{Name: name, Type: "bathroom"})
	}

	var total float64
	for _, r := range rooms {
		total += roomWeights[r.Type]
	}
	for i := range rooms {
		share := area * roomWeights[rooms[i].Type] / total
		rooms[i].Area = math.Round(share*10) / 10
	}
	return rooms
}
