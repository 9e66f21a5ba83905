// Package domain defines the starship design aggregate, the installed-entity
// records it is built from, and the lookup and calculation contracts the
// persistence engine depends on.
package domain

import "time"

// Category identifies a component catalog and the design collection that
// installs entries from it.
type Category string

// Component categories. Fuel categories resolve their type identifiers against
// the parent category (a power plant fuel tank names a power plant type).
const (
	CategoryHull           Category = "hull"
	CategoryArmor          Category = "armor"
	CategoryPowerPlant     Category = "power_plant"
	CategoryPowerPlantFuel Category = "power_plant_fuel"
	CategoryEngine         Category = "engine"
	CategoryEngineFuel     Category = "engine_fuel"
	CategoryFTLDrive       Category = "ftl_drive"
	CategoryFTLFuel        Category = "ftl_fuel"
	CategoryLifeSupport    Category = "life_support"
	CategoryAccommodation  Category = "accommodation"
	CategoryStoreSystem    Category = "store_system"
	CategoryGravitySystem  Category = "gravity_system"
	CategoryWeapon         Category = "weapon"
	CategoryLaunchSystem   Category = "launch_system"
	CategoryOrdnance       Category = "ordnance"
	CategoryWarhead        Category = "warhead"
	CategoryPropulsion     Category = "propulsion"
	CategoryGuidance       Category = "guidance"
	CategoryDefense        Category = "defense"
	CategoryCommandControl Category = "command_control"
	CategorySensor         Category = "sensor"
	CategoryHangarMisc     Category = "hangar_misc"
	CategoryDamageZone     Category = "damage_zone"
)

// CatalogCategories lists every category backed by catalog data, in the order
// catalogs are loaded and listed.
var CatalogCategories = []Category{
	CategoryHull,
	CategoryArmor,
	CategoryPowerPlant,
	CategoryEngine,
	CategoryFTLDrive,
	CategoryLifeSupport,
	CategoryAccommodation,
	CategoryStoreSystem,
	CategoryGravitySystem,
	CategoryWeapon,
	CategoryLaunchSystem,
	CategoryWarhead,
	CategoryPropulsion,
	CategoryGuidance,
	CategoryDefense,
	CategoryCommandControl,
	CategorySensor,
	CategoryHangarMisc,
}

// ParentCategory returns the catalog a fuel category resolves its type ids
// against. Non-fuel categories resolve against themselves.
func (c Category) ParentCategory() Category {
	switch c {
	case CategoryPowerPlantFuel:
		return CategoryPowerPlant
	case CategoryEngineFuel:
		return CategoryEngine
	case CategoryFTLFuel:
		return CategoryFTLDrive
	default:
		return c
	}
}

// Control kinds carried by command/control type definitions.
const (
	ControlComputer      = "computer"
	ControlFireControl   = "fire_control"
	ControlSensorControl = "sensor_control"
)

// Derived holds values recomputed from a type definition and the user's
// parameters. They are never read back from a stored document.
type Derived struct {
	HullPoints  float64 `json:"hullPoints"`
	Power       float64 `json:"power"`
	PowerOutput float64 `json:"powerOutput"`
	Cost        float64 `json:"cost"`
	Capacity    float64 `json:"capacity"`
	Coverage    float64 `json:"coverage"`
	Tracking    int     `json:"tracking"`
}

// Hull is the resolved hull selection of a design.
type Hull struct {
	TypeID          string  `json:"typeId"`
	HullPoints      float64 `json:"hullPoints"`
	BonusHullPoints float64 `json:"bonusHullPoints"`
	Cost            float64 `json:"cost"`
}

// ArmorLayer is one installed armor layer. Layers are ordered outermost first.
type ArmorLayer struct {
	TypeID string `json:"typeId"`
	Derived
}

// Installation covers every category whose only user parameters are a
// quantity and, for scalable components, a chosen size in hull points.
type Installation struct {
	ID       string  `json:"id"`
	TypeID   string  `json:"typeId"`
	Quantity int     `json:"quantity"`
	Size     float64 `json:"size,omitempty"`
	Derived
}

// FuelTank stores fuel for a parent power plant, engine or FTL drive type.
// TypeID names the parent type. Orphaned is set when no installed parent of
// that type exists.
type FuelTank struct {
	ID       string  `json:"id"`
	TypeID   string  `json:"typeId"`
	Size     float64 `json:"size"`
	Orphaned bool    `json:"orphaned,omitempty"`
	Derived
}

// Weapon is an installed weapon mount group. Weapons sharing a type and mount
// form a battery addressed by BatteryKey.
type Weapon struct {
	ID               string   `json:"id"`
	TypeID           string   `json:"typeId"`
	MountType        string   `json:"mountType"`
	GunConfiguration string   `json:"gunConfiguration,omitempty"`
	Concealed        bool     `json:"concealed,omitempty"`
	Quantity         int      `json:"quantity"`
	Arcs             []string `json:"arcs,omitempty"`
	Derived
}

// BatteryKey returns the composite "<weapon type>:<mount type>" key that
// fire-control systems use to reference a battery.
func (w Weapon) BatteryKey() string {
	return BatteryKey(w.TypeID, w.MountType)
}

// BatteryKey builds a composite battery key.
func BatteryKey(weaponTypeID, mountType string) string {
	return weaponTypeID + ":" + mountType
}

// LoadoutEntry assigns a number of rounds of an ordnance design to a launcher.
type LoadoutEntry struct {
	DesignID string `json:"designId"`
	Quantity int    `json:"quantity"`
}

// LaunchSystem is an installed launcher with its magazine loadout.
type LaunchSystem struct {
	ID              string         `json:"id"`
	TypeID          string         `json:"typeId"`
	Quantity        int            `json:"quantity"`
	ExtraHullPoints float64        `json:"extraHullPoints,omitempty"`
	Loadout         []LoadoutEntry `json:"loadout,omitempty"`
	Derived
}

// OrdnanceDesign is a user-assembled missile, bomb or mine built from
// warhead, propulsion and guidance catalog entries.
type OrdnanceDesign struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Kind         string  `json:"kind"`
	Size         float64 `json:"size"`
	WarheadID    string  `json:"warheadId"`
	PropulsionID string  `json:"propulsionId,omitempty"`
	GuidanceID   string  `json:"guidanceId,omitempty"`
	Derived
}

// CommandControl is an installed command, computer or control system.
// Fire-control systems link a weapon battery; sensor-control systems link a
// sensor instance.
type CommandControl struct {
	ID               string  `json:"id"`
	TypeID           string  `json:"typeId"`
	Quantity         int     `json:"quantity"`
	Size             float64 `json:"size,omitempty"`
	LinkedBatteryKey string  `json:"linkedBatteryKey,omitempty"`
	LinkedSensorID   string  `json:"linkedSensorId,omitempty"`
	Orphaned         bool    `json:"orphaned,omitempty"`
	Derived
}

// Sensor is an installed sensor. AssignedControlID names the command/control
// instance whose quality feeds the sensor's tracking.
type Sensor struct {
	ID                string `json:"id"`
	TypeID            string `json:"typeId"`
	Quantity          int    `json:"quantity"`
	ArcsCovered       int    `json:"arcsCovered,omitempty"`
	AssignedControlID string `json:"assignedControlId,omitempty"`
	Orphaned          bool   `json:"orphaned,omitempty"`
	Derived
}

// DamageZone groups installed systems by instance id.
type DamageZone struct {
	Code      string   `json:"code"`
	SystemIDs []string `json:"systems"`
}

// HitLocationChart maps attack direction and die roll to damage zones.
type HitLocationChart struct {
	HitDie  int                 `json:"hitDie"`
	Columns []HitLocationColumn `json:"columns"`
}

// HitLocationColumn is one attack direction of the chart.
type HitLocationColumn struct {
	Direction string             `json:"direction"`
	Entries   []HitLocationEntry `json:"entries"`
}

// HitLocationEntry maps an inclusive roll range to a zone code.
type HitLocationEntry struct {
	MinRoll  int    `json:"minRoll"`
	MaxRoll  int    `json:"maxRoll"`
	ZoneCode string `json:"zone"`
}

// Lore holds the free-text description fields of a design.
type Lore struct {
	Faction           string `json:"faction,omitempty"`
	Role              string `json:"role,omitempty"`
	CommissioningDate string `json:"commissioningDate,omitempty"`
	Classification    string `json:"classification,omitempty"`
	Designer          string `json:"designer,omitempty"`
	Description       string `json:"description,omitempty"`
}

// Constraints bound which catalog entries a design may use.
type Constraints struct {
	ProgressLevel int      `json:"progressLevel"`
	TechTracks    []string `json:"techTracks,omitempty"`
}

// Design is the full in-memory aggregate of a ship or station design.
//
// Collections are replaced, never edited in place, so copying a Design value
// yields a snapshot that later edits cannot reach.
type Design struct {
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`

	Hull        *Hull        `json:"hull"`
	ArmorLayers []ArmorLayer `json:"armorLayers"`

	PowerPlants    []Installation `json:"powerPlants"`
	PowerPlantFuel []FuelTank     `json:"powerPlantFuel"`
	Engines        []Installation `json:"engines"`
	EngineFuel     []FuelTank     `json:"engineFuel"`
	FTLDrive       *Installation  `json:"ftlDrive"`
	FTLFuel        []FuelTank     `json:"ftlFuel"`

	LifeSupport    []Installation `json:"lifeSupport"`
	Accommodations []Installation `json:"accommodations"`
	StoreSystems   []Installation `json:"storeSystems"`
	GravitySystems []Installation `json:"gravitySystems"`

	Weapons         []Weapon         `json:"weapons"`
	LaunchSystems   []LaunchSystem   `json:"launchSystems"`
	OrdnanceDesigns []OrdnanceDesign `json:"ordnanceDesigns"`
	Defenses        []Installation   `json:"defenses"`
	CommandControl  []CommandControl `json:"commandControl"`
	Sensors         []Sensor         `json:"sensors"`
	HangarMisc      []Installation   `json:"hangarMisc"`

	DamageZones      []DamageZone      `json:"damageZones"`
	HitLocationChart *HitLocationChart `json:"hitLocationChart"`

	Lore        Lore        `json:"lore"`
	Constraints Constraints `json:"constraints"`
}

// ShipHullPoints returns the hull size used by percentage-based formulas, or
// zero when no hull is selected.
func (d Design) ShipHullPoints() float64 {
	if d.Hull == nil {
		return 0
	}
	return d.Hull.HullPoints
}
