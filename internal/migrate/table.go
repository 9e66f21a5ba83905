// Package migrate upgrades documents written by older builds: renamed type
// identifiers are rewritten before decoding and defense quantities recorded
// as raw units are converted to coverage sets once the hull size is known.
package migrate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"shipyard/internal/wire"
	"shipyard/pkg/domain"
)

// Rename maps a type id retired in version Since to its replacement.
// Documents older than Since are rewritten.
type Rename struct {
	Since    wire.Version
	Category domain.Category
	From     string
	To       string
}

// Table is the ordered history of identifier and unit changes.
type Table struct {
	Renames []Rename
	// CoverageSince is the first version storing coverage-based defense
	// quantities as sets rather than units.
	CoverageSince wire.Version
}

// Default returns the migration history of the document format.
func Default() Table {
	return Table{
		Renames: []Rename{
			{Since: wire.MustParseVersion("2.1"), Category: domain.CategoryWeapon, From: "particle-beam", To: "particle-accelerator"},
			{Since: wire.MustParseVersion("2.1"), Category: domain.CategorySensor, From: "radar-array", To: "radar"},
			{Since: wire.MustParseVersion("2.2"), Category: domain.CategoryHangarMisc, From: "hangar", To: "hangar-bay"},
			{Since: wire.MustParseVersion("2.3"), Category: domain.CategoryCommandControl, From: "fire-control-computer", To: "fire-control"},
			{Since: wire.MustParseVersion("2.3"), Category: domain.CategoryEngine, From: "ion-engine", To: "ion-drive"},
		},
		CoverageSince: wire.MustParseVersion("2.2"),
	}
}

// pending returns the renames that apply to a document at version from,
// oldest first so chained renames compose.
func (t Table) pending(from wire.Version) []Rename {
	var out []Rename
	for _, r := range t.Renames {
		if from.Less(r.Since) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Since.Less(out[j].Since) })
	return out
}

// Apply rewrites stale identifiers in a copy of doc. The input document is
// not modified. Each rewritten field yields one warning.
func (t Table) Apply(doc *wire.Document, from wire.Version) (*wire.Document, []domain.Diagnostic) {
	if doc == nil {
		return nil, nil
	}
	out := clone(doc)
	var notes []domain.Diagnostic
	for _, r := range t.pending(from) {
		rw := rewriter{rename: r, notes: &notes}
		rw.apply(out)
	}
	return out, notes
}

// ApplyCoverageUnits converts coverage-based defense quantities from raw
// units to coverage sets for documents older than CoverageSince. Types are
// looked up in the current catalog. Without a hull nothing is converted and
// each coverage-based defense yields a CodeMigrationSkipped warning, since its
// quantity is still in units.
//
// sets = max(1, round(units / (shipHullPoints / coveragePerSet))), rounding
// half away from zero.
func (t Table) ApplyCoverageUnits(defenses []wire.InstallationRecord, shipHullPoints float64, catalog domain.Catalog, from wire.Version) ([]wire.InstallationRecord, []domain.Diagnostic) {
	if !from.Less(t.CoverageSince) || catalog == nil {
		return defenses, nil
	}
	if shipHullPoints <= 0 {
		return defenses, unconverted(defenses, catalog)
	}
	out := make([]wire.InstallationRecord, len(defenses))
	copy(out, defenses)
	var notes []domain.Diagnostic
	for i, rec := range out {
		def, ok := catalog.FindType(domain.CategoryDefense, rec.TypeID)
		if !ok || !def.CoverageBased || def.CoveragePerSet <= 0 {
			continue
		}
		sets := CoverageSets(rec.Quantity, shipHullPoints, def.CoveragePerSet)
		if sets == rec.Quantity {
			continue
		}
		notes = append(notes, domain.Warningf(domain.CodeMigrationApplied, domain.CategoryDefense, rec.ID,
			"%s quantity %d → %d (units to coverage sets)", rec.TypeID, rec.Quantity, sets))
		out[i].Quantity = sets
	}
	return out, notes
}

func unconverted(defenses []wire.InstallationRecord, catalog domain.Catalog) []domain.Diagnostic {
	var notes []domain.Diagnostic
	for _, rec := range defenses {
		def, ok := catalog.FindType(domain.CategoryDefense, rec.TypeID)
		if !ok || !def.CoverageBased {
			continue
		}
		notes = append(notes, domain.Warningf(domain.CodeMigrationSkipped, domain.CategoryDefense, rec.ID,
			"%s quantity %d is in units and cannot be converted to coverage sets without a hull", rec.TypeID, rec.Quantity))
	}
	return notes
}

// CoverageSets converts a raw unit count to coverage sets for a ship of
// shipHullPoints where each set covers coveragePerSet hull points.
func CoverageSets(units int, shipHullPoints, coveragePerSet float64) int {
	unitsPerSet := shipHullPoints / coveragePerSet
	if unitsPerSet <= 0 {
		return max(1, units)
	}
	return max(1, int(math.Round(float64(units)/unitsPerSet)))
}

type rewriter struct {
	rename Rename
	notes  *[]domain.Diagnostic
}

func (rw rewriter) id(category domain.Category, field, instance string, value *string) {
	if *value != rw.rename.From {
		return
	}
	*rw.notes = append(*rw.notes, domain.Warningf(domain.CodeMigrationApplied, category, instance,
		"%s %s → %s", field, rw.rename.From, rw.rename.To))
	*value = rw.rename.To
}

func (rw rewriter) installations(category domain.Category, field string, recs []wire.InstallationRecord) {
	for i := range recs {
		rw.id(category, field, recs[i].ID, &recs[i].TypeID)
	}
}

func (rw rewriter) apply(doc *wire.Document) {
	switch rw.rename.Category {
	case domain.CategoryHull:
		if doc.Hull != nil {
			rw.id(domain.CategoryHull, "hull", "", &doc.Hull.ID)
		}
	case domain.CategoryArmor:
		if doc.Armor != nil {
			rw.id(domain.CategoryArmor, "armor", "", &doc.Armor.ID)
		}
		for i := range doc.ArmorLayers {
			rw.id(domain.CategoryArmor, "armor layer", "", &doc.ArmorLayers[i].ID)
		}
	case domain.CategoryPowerPlant:
		rw.installations(domain.CategoryPowerPlant, "power plant", doc.PowerPlants)
		rw.installations(domain.CategoryPowerPlantFuel, "power plant fuel", doc.FuelTanks)
	case domain.CategoryEngine:
		rw.installations(domain.CategoryEngine, "engine", doc.Engines)
		rw.installations(domain.CategoryEngineFuel, "engine fuel", doc.EngineFuelTanks)
	case domain.CategoryFTLDrive:
		if doc.FTLDrive != nil {
			rw.id(domain.CategoryFTLDrive, "ftl drive", doc.FTLDrive.ID, &doc.FTLDrive.TypeID)
		}
		rw.installations(domain.CategoryFTLFuel, "ftl fuel", doc.FTLFuelTanks)
	case domain.CategoryLifeSupport:
		rw.installations(domain.CategoryLifeSupport, "life support", doc.LifeSupport)
	case domain.CategoryAccommodation:
		rw.installations(domain.CategoryAccommodation, "accommodation", doc.Accommodations)
	case domain.CategoryStoreSystem:
		rw.installations(domain.CategoryStoreSystem, "store system", doc.StoreSystems)
	case domain.CategoryGravitySystem:
		rw.installations(domain.CategoryGravitySystem, "gravity system", doc.GravitySystems)
	case domain.CategoryDefense:
		rw.installations(domain.CategoryDefense, "defense", doc.Defenses)
	case domain.CategoryHangarMisc:
		rw.installations(domain.CategoryHangarMisc, "hangar/misc", doc.HangarMisc)
	case domain.CategoryWeapon:
		for i := range doc.Weapons {
			rw.id(domain.CategoryWeapon, "weapon", doc.Weapons[i].ID, &doc.Weapons[i].TypeID)
		}
		for i := range doc.CommandControl {
			rw.batteryKey(&doc.CommandControl[i])
		}
	case domain.CategoryLaunchSystem:
		for i := range doc.LaunchSystems {
			rw.id(domain.CategoryLaunchSystem, "launch system", doc.LaunchSystems[i].ID, &doc.LaunchSystems[i].TypeID)
		}
	case domain.CategoryWarhead, domain.CategoryPropulsion, domain.CategoryGuidance:
		for i := range doc.OrdnanceDesigns {
			o := &doc.OrdnanceDesigns[i]
			switch rw.rename.Category {
			case domain.CategoryWarhead:
				rw.id(domain.CategoryOrdnance, "warhead", o.ID, &o.WarheadID)
			case domain.CategoryPropulsion:
				rw.id(domain.CategoryOrdnance, "propulsion", o.ID, &o.PropulsionID)
			case domain.CategoryGuidance:
				rw.id(domain.CategoryOrdnance, "guidance", o.ID, &o.GuidanceID)
			}
		}
	case domain.CategoryCommandControl:
		for i := range doc.CommandControl {
			rw.id(domain.CategoryCommandControl, "command/control", doc.CommandControl[i].ID, &doc.CommandControl[i].TypeID)
		}
	case domain.CategorySensor:
		for i := range doc.Sensors {
			rw.id(domain.CategorySensor, "sensor", doc.Sensors[i].ID, &doc.Sensors[i].TypeID)
		}
	}
}

// batteryKey rewrites the weapon component of a composite battery key.
func (rw rewriter) batteryKey(cc *wire.CommandControlRecord) {
	weapon, mount, ok := strings.Cut(cc.LinkedBatteryKey, ":")
	if !ok || weapon != rw.rename.From {
		return
	}
	next := domain.BatteryKey(rw.rename.To, mount)
	*rw.notes = append(*rw.notes, domain.Warningf(domain.CodeMigrationApplied, domain.CategoryCommandControl, cc.ID,
		"battery key %s → %s", cc.LinkedBatteryKey, next))
	cc.LinkedBatteryKey = next
}

// clone copies every record slice of doc so rewrites never reach the caller's
// document.
func clone(doc *wire.Document) *wire.Document {
	out := *doc
	if doc.Hull != nil {
		h := *doc.Hull
		out.Hull = &h
	}
	if doc.Armor != nil {
		a := *doc.Armor
		out.Armor = &a
	}
	if doc.FTLDrive != nil {
		f := *doc.FTLDrive
		out.FTLDrive = &f
	}
	out.ArmorLayers = cloneSlice(doc.ArmorLayers)
	out.DesignTechTracks = cloneSlice(doc.DesignTechTracks)
	out.PowerPlants = cloneSlice(doc.PowerPlants)
	out.FuelTanks = cloneSlice(doc.FuelTanks)
	out.Engines = cloneSlice(doc.Engines)
	out.EngineFuelTanks = cloneSlice(doc.EngineFuelTanks)
	out.FTLFuelTanks = cloneSlice(doc.FTLFuelTanks)
	out.LifeSupport = cloneSlice(doc.LifeSupport)
	out.Accommodations = cloneSlice(doc.Accommodations)
	out.StoreSystems = cloneSlice(doc.StoreSystems)
	out.GravitySystems = cloneSlice(doc.GravitySystems)
	out.Weapons = cloneSlice(doc.Weapons)
	out.LaunchSystems = cloneSlice(doc.LaunchSystems)
	for i := range out.LaunchSystems {
		out.LaunchSystems[i].Loadout = cloneSlice(out.LaunchSystems[i].Loadout)
	}
	out.OrdnanceDesigns = cloneSlice(doc.OrdnanceDesigns)
	out.Defenses = cloneSlice(doc.Defenses)
	out.CommandControl = cloneSlice(doc.CommandControl)
	out.Sensors = cloneSlice(doc.Sensors)
	out.HangarMisc = cloneSlice(doc.HangarMisc)
	out.DamageDiagramZones = cloneSlice(doc.DamageDiagramZones)
	for i := range out.DamageDiagramZones {
		out.DamageDiagramZones[i].SystemIDs = cloneSlice(out.DamageDiagramZones[i].SystemIDs)
	}
	return &out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// String renders a rename for logs.
func (r Rename) String() string {
	return fmt.Sprintf("%s %s: %s → %s", r.Since, r.Category, r.From, r.To)
}
