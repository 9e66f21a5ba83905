// Package calc implements the default derived-value formulas. Every value is
// a linear function of catalog fields and user parameters unless the type
// definition supplies a cost formula.
package calc

import (
	"math"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/sirupsen/logrus"

	"shipyard/internal/observability"
	"shipyard/pkg/domain"
)

// FormulaEnv is the variable scope of a cost formula.
type FormulaEnv struct {
	HullPoints     float64 `expr:"hullPoints"`
	Quantity       float64 `expr:"quantity"`
	ShipHullPoints float64 `expr:"shipHullPoints"`
	BaseCost       float64 `expr:"baseCost"`
}

// Calculator is the default domain.Calculator. Compiled formulas are cached
// per expression; it is safe for concurrent use.
type Calculator struct {
	logger logrus.FieldLogger

	mu       sync.Mutex
	programs map[string]*vm.Program
	broken   map[string]error
}

var _ domain.Calculator = (*Calculator)(nil)

// Option configures a Calculator.
type Option func(*Calculator)

// WithLogger sets the logger used to report failing formulas.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Calculator) { c.logger = logger }
}

// New returns a calculator.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		programs: make(map[string]*vm.Program),
		broken:   make(map[string]error),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.logger = observability.OrDiscard(c.logger)
	return c
}

// Hull resolves the hull's capacity and cost.
func (c *Calculator) Hull(def domain.TypeDefinition) domain.Hull {
	return domain.Hull{
		TypeID:          def.ID,
		HullPoints:      def.HullPoints,
		BonusHullPoints: def.BonusHullPoints,
		Cost:            c.cost(def, def.HullPoints, 1, def.HullPoints),
	}
}

// Armor sizes a layer as a percentage of the ship. Without a hull the layer
// is free and weightless.
func (c *Calculator) Armor(def domain.TypeDefinition, shipHullPoints float64) domain.Derived {
	if shipHullPoints <= 0 {
		return domain.Derived{}
	}
	hp := percentOf(def.HullPercent, shipHullPoints)
	return domain.Derived{
		HullPoints: hp,
		Cost:       c.cost(def, hp, 1, shipHullPoints),
	}
}

// Installation computes the derived values of a quantity of fixed-size,
// percentage-sized or scalable components.
func (c *Calculator) Installation(def domain.TypeDefinition, quantity int, size, shipHullPoints float64) domain.Derived {
	q := float64(quantity)
	hp := HullPoints(def, quantity, size, shipHullPoints)
	d := domain.Derived{
		HullPoints:  hp,
		Power:       def.Power*q + def.PowerPerHullPoint*hp,
		PowerOutput: def.PowerOutputPerHullPoint * hp,
		Cost:        c.cost(def, hp, q, shipHullPoints),
		Capacity:    def.Capacity*q + def.CapacityPerHullPoint*hp,
	}
	if def.CoverageBased {
		d.Coverage = def.CoveragePerSet * q
	}
	if def.Tracking > 0 {
		d.Tracking = def.Tracking
	}
	return d
}

// FuelTank sizes a tank using the parent type's fuel rates.
func (c *Calculator) FuelTank(parent domain.TypeDefinition, size float64) domain.Derived {
	return domain.Derived{
		HullPoints: size,
		Cost:       parent.FuelCostPerHullPoint * size,
		Capacity:   parent.FuelCapacityPerHullPoint * size,
	}
}

// LaunchSystem computes a launcher group. Extra hull points enlarge the
// magazine at the type's capacity rate.
func (c *Calculator) LaunchSystem(def domain.TypeDefinition, quantity int, extraHullPoints, shipHullPoints float64) domain.Derived {
	q := float64(quantity)
	hp := HullPoints(def, quantity, 0, shipHullPoints) + extraHullPoints
	return domain.Derived{
		HullPoints: hp,
		Power:      def.Power*q + def.PowerPerHullPoint*hp,
		Cost:       c.cost(def, hp, q, shipHullPoints),
		Capacity:   def.Capacity*q + def.CapacityPerHullPoint*extraHullPoints,
	}
}

// Ordnance prices one round assembled from its components.
func (c *Calculator) Ordnance(warhead domain.TypeDefinition, propulsion, guidance *domain.TypeDefinition, size float64) domain.Derived {
	cost := warhead.Cost + warhead.CostPerHullPoint*size
	if propulsion != nil {
		cost += propulsion.Cost + propulsion.CostPerHullPoint*size
	}
	if guidance != nil {
		cost += guidance.Cost + guidance.CostPerHullPoint*size
	}
	return domain.Derived{HullPoints: size, Cost: cost}
}

// FireControlCost prices a fire-control group against the hull points of the
// battery it directs.
func (c *Calculator) FireControlCost(def domain.TypeDefinition, batteryHullPoints float64, quantity int) float64 {
	return def.Cost*float64(quantity) + def.CostPerBatteryHullPoint*batteryHullPoints
}

// Tracking returns a sensor's tracking capability including the bonus of its
// assigned control system.
func (c *Calculator) Tracking(sensor domain.TypeDefinition, quantity int, control *domain.TypeDefinition) int {
	if quantity <= 0 {
		return 0
	}
	tracking := sensor.Tracking
	if control != nil {
		tracking += control.TrackingBonus
	}
	return tracking
}

// HullPoints returns the hull points consumed by quantity units of def.
// Scalable components consume their chosen size per unit; percentage-sized
// components round each unit up to a whole hull point.
func HullPoints(def domain.TypeDefinition, quantity int, size, shipHullPoints float64) float64 {
	q := float64(quantity)
	switch {
	case def.Scalable:
		return size * q
	case def.HullPercent > 0:
		return percentOf(def.HullPercent, shipHullPoints) * q
	default:
		return def.HullPoints * q
	}
}

func percentOf(percent, shipHullPoints float64) float64 {
	if shipHullPoints <= 0 {
		return 0
	}
	return math.Ceil(percent / 100 * shipHullPoints)
}

func (c *Calculator) cost(def domain.TypeDefinition, hp, quantity, shipHullPoints float64) float64 {
	linear := def.Cost*quantity + def.CostPerHullPoint*hp
	if def.CostFormula == "" {
		return linear
	}
	program, err := c.program(def.CostFormula)
	if err == nil {
		var out any
		out, err = expr.Run(program, FormulaEnv{
			HullPoints:     hp,
			Quantity:       quantity,
			ShipHullPoints: shipHullPoints,
			BaseCost:       linear,
		})
		if err == nil {
			if v, ok := out.(float64); ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
				return v
			}
		}
	}
	c.logger.WithFields(logrus.Fields{
		"type":    def.ID,
		"formula": def.CostFormula,
	}).WithError(err).Warn("cost formula failed, using linear cost")
	return linear
}

func (c *Calculator) program(expression string) (*vm.Program, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.programs[expression]; ok {
		return p, nil
	}
	if err, ok := c.broken[expression]; ok {
		return nil, err
	}
	p, err := expr.Compile(expression, expr.Env(FormulaEnv{}), expr.AsFloat64())
	if err != nil {
		c.broken[expression] = err
		return nil, err
	}
	c.programs[expression] = p
	return p, nil
}
