package domain

// TypeDefinition is a catalog entry. Only the fields relevant to a category
// are populated; formulas treat missing values as zero.
type TypeDefinition struct {
	ID            string   `yaml:"id" json:"id"`
	Category      Category `yaml:"category,omitempty" json:"category,omitempty"`
	Name          string   `yaml:"name" json:"name"`
	ProgressLevel int      `yaml:"progressLevel,omitempty" json:"progressLevel,omitempty"`
	TechTracks    []string `yaml:"techTracks,omitempty" json:"techTracks,omitempty"`

	HullPoints      float64 `yaml:"hullPoints,omitempty" json:"hullPoints,omitempty"`
	BonusHullPoints float64 `yaml:"bonusHullPoints,omitempty" json:"bonusHullPoints,omitempty"`
	HullPercent     float64 `yaml:"hullPercent,omitempty" json:"hullPercent,omitempty"`
	Scalable        bool    `yaml:"scalable,omitempty" json:"scalable,omitempty"`
	MinSize         float64 `yaml:"minSize,omitempty" json:"minSize,omitempty"`
	MaxSize         float64 `yaml:"maxSize,omitempty" json:"maxSize,omitempty"`

	Power                   float64 `yaml:"power,omitempty" json:"power,omitempty"`
	PowerPerHullPoint       float64 `yaml:"powerPerHullPoint,omitempty" json:"powerPerHullPoint,omitempty"`
	PowerOutputPerHullPoint float64 `yaml:"powerOutputPerHullPoint,omitempty" json:"powerOutputPerHullPoint,omitempty"`

	Cost             float64 `yaml:"cost,omitempty" json:"cost,omitempty"`
	CostPerHullPoint float64 `yaml:"costPerHullPoint,omitempty" json:"costPerHullPoint,omitempty"`
	// CostFormula optionally replaces the linear cost formula. It is evaluated
	// with hullPoints, quantity, shipHullPoints and baseCost in scope.
	CostFormula string `yaml:"costFormula,omitempty" json:"costFormula,omitempty"`

	Capacity             float64 `yaml:"capacity,omitempty" json:"capacity,omitempty"`
	CapacityPerHullPoint float64 `yaml:"capacityPerHullPoint,omitempty" json:"capacityPerHullPoint,omitempty"`

	FuelCostPerHullPoint     float64 `yaml:"fuelCostPerHullPoint,omitempty" json:"fuelCostPerHullPoint,omitempty"`
	FuelCapacityPerHullPoint float64 `yaml:"fuelCapacityPerHullPoint,omitempty" json:"fuelCapacityPerHullPoint,omitempty"`

	// CoverageBased marks defenses whose quantity counts coverage sets rather
	// than raw units. One set protects CoveragePerSet hull points.
	CoverageBased  bool    `yaml:"coverageBased,omitempty" json:"coverageBased,omitempty"`
	CoveragePerSet float64 `yaml:"coveragePerSet,omitempty" json:"coveragePerSet,omitempty"`

	Tracking                int     `yaml:"tracking,omitempty" json:"tracking,omitempty"`
	TrackingBonus           int     `yaml:"trackingBonus,omitempty" json:"trackingBonus,omitempty"`
	CostPerBatteryHullPoint float64 `yaml:"costPerBatteryHullPoint,omitempty" json:"costPerBatteryHullPoint,omitempty"`
	ControlKind             string  `yaml:"controlKind,omitempty" json:"controlKind,omitempty"`
}

// Catalog resolves type identifiers to definitions. Implementations are
// read-only and safe for concurrent use.
type Catalog interface {
	FindType(category Category, id string) (TypeDefinition, bool)
}

// Calculator recomputes derived values from catalog definitions and user
// parameters. shipHullPoints is the current hull size, zero without a hull.
type Calculator interface {
	Hull(def TypeDefinition) Hull
	Armor(def TypeDefinition, shipHullPoints float64) Derived
	Installation(def TypeDefinition, quantity int, size, shipHullPoints float64) Derived
	FuelTank(parent TypeDefinition, size float64) Derived
	LaunchSystem(def TypeDefinition, quantity int, extraHullPoints, shipHullPoints float64) Derived
	Ordnance(warhead TypeDefinition, propulsion, guidance *TypeDefinition, size float64) Derived
	FireControlCost(def TypeDefinition, batteryHullPoints float64, quantity int) float64
	Tracking(sensor TypeDefinition, quantity int, control *TypeDefinition) int
}
