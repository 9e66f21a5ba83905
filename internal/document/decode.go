package document

import (
	"strings"
	"time"

	"shipyard/internal/wire"
	"shipyard/pkg/domain"
)

// decoder holds the state of one Deserialize call.
type decoder struct {
	engine *Engine

	version    wire.Version
	design     domain.Design
	errors     []domain.Diagnostic
	warnings   []domain.Diagnostic
	referenced map[string]bool
	used       map[string]bool
}

func (d *decoder) warn(diag domain.Diagnostic) { d.warnings = append(d.warnings, diag) }

func (d *decoder) fail(diag domain.Diagnostic) { d.errors = append(d.errors, diag) }

func (d *decoder) result() LoadResult {
	res := LoadResult{Errors: d.errors, Warnings: d.warnings}
	if len(d.errors) == 0 {
		res.Success = true
		design := d.design
		res.Design = &design
	}
	return res
}

func (d *decoder) run(doc *wire.Document) LoadResult {
	if doc == nil {
		d.fail(domain.Errorf(domain.CodeVersionMissing, "", "", "document is empty"))
		return d.result()
	}
	if !d.checkVersion(doc.Version) {
		return d.result()
	}

	doc, notes := d.engine.table.Apply(doc, d.version)
	d.warnings = append(d.warnings, notes...)

	d.referenced = referencedIDs(doc)
	d.used = make(map[string]bool)
	d.decodeMetadata(doc)

	if !d.decodeHull(doc.Hull) {
		return d.result()
	}
	d.decodeArmor(doc)

	d.design.PowerPlants = d.installations(domain.CategoryPowerPlant, doc.PowerPlants)
	d.design.PowerPlantFuel = d.fuelTanks(domain.CategoryPowerPlantFuel, doc.FuelTanks, typeIDs(d.design.PowerPlants))
	d.design.Engines = d.installations(domain.CategoryEngine, doc.Engines)
	d.design.EngineFuel = d.fuelTanks(domain.CategoryEngineFuel, doc.EngineFuelTanks, typeIDs(d.design.Engines))
	if doc.FTLDrive != nil {
		if drives := d.installations(domain.CategoryFTLDrive, []wire.InstallationRecord{*doc.FTLDrive}); len(drives) == 1 {
			d.design.FTLDrive = &drives[0]
		}
	}
	var ftlTypes map[string]bool
	if d.design.FTLDrive != nil {
		ftlTypes = map[string]bool{d.design.FTLDrive.TypeID: true}
	}
	d.design.FTLFuel = d.fuelTanks(domain.CategoryFTLFuel, doc.FTLFuelTanks, ftlTypes)

	d.design.LifeSupport = d.installations(domain.CategoryLifeSupport, doc.LifeSupport)
	d.design.Accommodations = d.installations(domain.CategoryAccommodation, doc.Accommodations)
	d.design.StoreSystems = d.installations(domain.CategoryStoreSystem, doc.StoreSystems)
	d.design.GravitySystems = d.installations(domain.CategoryGravitySystem, doc.GravitySystems)

	d.design.Weapons = d.weapons(doc.Weapons)
	d.design.OrdnanceDesigns = d.ordnance(doc.OrdnanceDesigns)
	d.design.LaunchSystems = d.launchSystems(doc.LaunchSystems)

	defenses, notes := d.engine.table.ApplyCoverageUnits(doc.Defenses, d.design.ShipHullPoints(), d.engine.catalog, d.version)
	d.warnings = append(d.warnings, notes...)
	d.design.Defenses = d.installations(domain.CategoryDefense, defenses)

	d.design.Sensors = d.sensors(doc.Sensors)
	d.design.CommandControl = d.commandControl(doc.CommandControl)
	d.design.HangarMisc = d.installations(domain.CategoryHangarMisc, doc.HangarMisc)

	d.design.DamageZones = d.damageZones(doc.DamageDiagramZones)
	d.design.HitLocationChart = cloneChart(doc.HitLocationChart)

	d.priceFireControl()
	d.trackSensors()
	return d.result()
}

// checkVersion applies the version gate. Only the major version must match.
func (d *decoder) checkVersion(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		d.fail(domain.Errorf(domain.CodeVersionMissing, "", "", "document has no format version"))
		return false
	}
	v, err := wire.ParseVersion(raw)
	if err != nil {
		d.fail(domain.Errorf(domain.CodeVersionMissing, "", "", "document format version %q is unreadable", raw))
		return false
	}
	if !v.Compatible() {
		d.fail(domain.Errorf(domain.CodeVersionIncompatible, "", "",
			"document format version %s is incompatible with %s", v, wire.CurrentVersion))
		return false
	}
	if v != wire.Current {
		d.warn(domain.Warningf(domain.CodeVersionMigrated, "", "",
			"document format version %s migrated to %s", v, wire.CurrentVersion))
	}
	d.version = v
	return true
}

func (d *decoder) decodeMetadata(doc *wire.Document) {
	d.design.Name = doc.Name
	d.design.CreatedAt = parseTime(doc.CreatedAt)
	d.design.ModifiedAt = parseTime(doc.ModifiedAt)
	d.design.Constraints = domain.Constraints{
		ProgressLevel: doc.DesignProgressLevel,
		TechTracks:    append([]string(nil), doc.DesignTechTracks...),
	}
	d.design.Lore = domain.Lore{
		Faction:           doc.Faction,
		Role:              doc.Role,
		CommissioningDate: doc.CommissioningDate,
		Classification:    doc.Classification,
		Designer:          doc.Designer,
		Description:       doc.Description,
	}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// decodeHull resolves the hull. A named but unknown hull aborts the load.
func (d *decoder) decodeHull(ref *wire.Ref) bool {
	if ref == nil || ref.ID == "" {
		return true
	}
	def, ok := d.engine.catalog.FindType(domain.CategoryHull, ref.ID)
	if !ok {
		d.fail(domain.Errorf(domain.CodeHullNotFound, domain.CategoryHull, ref.ID, "hull %q not found in catalog", ref.ID))
		return false
	}
	hull := d.engine.calc.Hull(def)
	d.design.Hull = &hull
	return true
}

// decodeArmor prefers the layered field and falls back to the legacy single
// layer.
func (d *decoder) decodeArmor(doc *wire.Document) {
	refs := doc.ArmorLayers
	if len(refs) == 0 && doc.Armor != nil && doc.Armor.ID != "" {
		refs = []wire.Ref{*doc.Armor}
	}
	for _, ref := range refs {
		def, ok := d.resolve(domain.CategoryArmor, ref.ID)
		if !ok {
			continue
		}
		d.design.ArmorLayers = append(d.design.ArmorLayers, domain.ArmorLayer{
			TypeID:  def.ID,
			Derived: d.engine.calc.Armor(def, d.design.ShipHullPoints()),
		})
	}
}

// resolve looks up a type and records a warning when it is missing.
func (d *decoder) resolve(category domain.Category, typeID string) (domain.TypeDefinition, bool) {
	def, ok := d.engine.catalog.FindType(category.ParentCategory(), typeID)
	if !ok {
		d.warn(domain.Warningf(domain.CodeTypeNotFound, category, typeID,
			"%s type %q not found in catalog; entity omitted", category, typeID))
	}
	return def, ok
}

// instanceID keeps a stored id only while another record depends on it.
// A referenced id claimed a second time is replaced and reported; references
// resolve to the first holder.
func (d *decoder) instanceID(category domain.Category, stored string) string {
	id := stored
	switch {
	case id == "" || !d.referenced[id]:
		id = d.engine.newID()
	case d.used[id]:
		id = d.engine.newID()
		d.warn(domain.Warningf(domain.CodeDuplicateID, category, id,
			"duplicate id %q replaced; references resolve to its first holder", stored))
	}
	d.used[id] = true
	return id
}

func quantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

func size(def domain.TypeDefinition, stored float64) float64 {
	if !def.Scalable {
		return 0
	}
	if stored <= 0 {
		return def.MinSize
	}
	return stored
}

func (d *decoder) installations(category domain.Category, recs []wire.InstallationRecord) []domain.Installation {
	var out []domain.Installation
	for _, rec := range recs {
		def, ok := d.resolve(category, rec.TypeID)
		if !ok {
			continue
		}
		q := quantity(rec.Quantity)
		s := size(def, rec.HullPoints)
		out = append(out, domain.Installation{
			ID:       d.instanceID(category, rec.ID),
			TypeID:   def.ID,
			Quantity: q,
			Size:     s,
			Derived:  d.engine.calc.Installation(def, q, s, d.design.ShipHullPoints()),
		})
	}
	return out
}

// fuelTanks decodes tanks whose type id names a parent type. A tank without
// an installed parent is kept and flagged.
func (d *decoder) fuelTanks(category domain.Category, recs []wire.InstallationRecord, installed map[string]bool) []domain.FuelTank {
	var out []domain.FuelTank
	for _, rec := range recs {
		parent, ok := d.resolve(category, rec.TypeID)
		if !ok {
			continue
		}
		tank := domain.FuelTank{
			ID:      d.instanceID(category, rec.ID),
			TypeID:  parent.ID,
			Size:    rec.HullPoints,
			Derived: d.engine.calc.FuelTank(parent, rec.HullPoints),
		}
		if !installed[parent.ID] {
			tank.Orphaned = true
			d.warn(domain.Warningf(domain.CodeReferenceOrphaned, category, tank.ID,
				"%s tank for %q has no installed %s", category, parent.ID, category.ParentCategory()))
		}
		out = append(out, tank)
	}
	return out
}

func (d *decoder) weapons(recs []wire.WeaponRecord) []domain.Weapon {
	var out []domain.Weapon
	for _, rec := range recs {
		def, ok := d.resolve(domain.CategoryWeapon, rec.TypeID)
		if !ok {
			continue
		}
		q := quantity(rec.Quantity)
		out = append(out, domain.Weapon{
			ID:               d.instanceID(domain.CategoryWeapon, rec.ID),
			TypeID:           def.ID,
			MountType:        rec.MountType,
			GunConfiguration: rec.GunConfiguration,
			Concealed:        rec.Concealed,
			Quantity:         q,
			Arcs:             append([]string(nil), rec.Arcs...),
			Derived:          d.engine.calc.Installation(def, q, 0, d.design.ShipHullPoints()),
		})
	}
	return out
}

func (d *decoder) ordnance(recs []wire.OrdnanceDesignRecord) []domain.OrdnanceDesign {
	var out []domain.OrdnanceDesign
	for _, rec := range recs {
		warhead, ok := d.resolve(domain.CategoryWarhead, rec.WarheadID)
		if !ok {
			continue
		}
		var propulsion, guidance *domain.TypeDefinition
		if rec.PropulsionID != "" {
			def, ok := d.resolve(domain.CategoryPropulsion, rec.PropulsionID)
			if !ok {
				continue
			}
			propulsion = &def
		}
		if rec.GuidanceID != "" {
			def, ok := d.resolve(domain.CategoryGuidance, rec.GuidanceID)
			if !ok {
				continue
			}
			guidance = &def
		}
		out = append(out, domain.OrdnanceDesign{
			ID:           d.instanceID(domain.CategoryOrdnance, rec.ID),
			Name:         rec.Name,
			Kind:         rec.Kind,
			Size:         rec.Size,
			WarheadID:    warhead.ID,
			PropulsionID: rec.PropulsionID,
			GuidanceID:   rec.GuidanceID,
			Derived:      d.engine.calc.Ordnance(warhead, propulsion, guidance, rec.Size),
		})
	}
	return out
}

// launchSystems decodes launchers after ordnance designs. Loadout entries
// naming a design that did not load are dropped.
func (d *decoder) launchSystems(recs []wire.LaunchSystemRecord) []domain.LaunchSystem {
	designs := make(map[string]bool, len(d.design.OrdnanceDesigns))
	for _, o := range d.design.OrdnanceDesigns {
		designs[o.ID] = true
	}
	var out []domain.LaunchSystem
	for _, rec := range recs {
		def, ok := d.resolve(domain.CategoryLaunchSystem, rec.TypeID)
		if !ok {
			continue
		}
		q := quantity(rec.Quantity)
		ls := domain.LaunchSystem{
			ID:              d.instanceID(domain.CategoryLaunchSystem, rec.ID),
			TypeID:          def.ID,
			Quantity:        q,
			ExtraHullPoints: rec.ExtraHullPoints,
			Derived:         d.engine.calc.LaunchSystem(def, q, rec.ExtraHullPoints, d.design.ShipHullPoints()),
		}
		for _, entry := range rec.Loadout {
			if !designs[entry.DesignID] {
				d.warn(domain.Warningf(domain.CodeReferenceDropped, domain.CategoryLaunchSystem, ls.ID,
					"loadout entry for missing ordnance design %q dropped", entry.DesignID))
				continue
			}
			ls.Loadout = append(ls.Loadout, domain.LoadoutEntry{DesignID: entry.DesignID, Quantity: entry.Quantity})
		}
		out = append(out, ls)
	}
	return out
}

func (d *decoder) sensors(recs []wire.SensorRecord) []domain.Sensor {
	var out []domain.Sensor
	for _, rec := range recs {
		def, ok := d.resolve(domain.CategorySensor, rec.TypeID)
		if !ok {
			continue
		}
		q := quantity(rec.Quantity)
		out = append(out, domain.Sensor{
			ID:                d.instanceID(domain.CategorySensor, rec.ID),
			TypeID:            def.ID,
			Quantity:          q,
			ArcsCovered:       rec.ArcsCovered,
			AssignedControlID: rec.AssignedControlID,
			Derived:           d.engine.calc.Installation(def, q, 0, d.design.ShipHullPoints()),
		})
	}
	return out
}

// commandControl decodes control systems after weapons and sensors so their
// links can be checked. Unresolved links are kept and flagged.
func (d *decoder) commandControl(recs []wire.CommandControlRecord) []domain.CommandControl {
	batteries := make(map[string]bool)
	for _, w := range d.design.Weapons {
		batteries[w.BatteryKey()] = true
	}
	sensors := make(map[string]bool)
	for _, s := range d.design.Sensors {
		sensors[s.ID] = true
	}
	var out []domain.CommandControl
	for _, rec := range recs {
		def, ok := d.resolve(domain.CategoryCommandControl, rec.TypeID)
		if !ok {
			continue
		}
		q := quantity(rec.Quantity)
		s := size(def, rec.HullPoints)
		cc := domain.CommandControl{
			ID:               d.instanceID(domain.CategoryCommandControl, rec.ID),
			TypeID:           def.ID,
			Quantity:         q,
			Size:             s,
			LinkedBatteryKey: rec.LinkedBatteryKey,
			LinkedSensorID:   rec.LinkedSensorID,
			Derived:          d.engine.calc.Installation(def, q, s, d.design.ShipHullPoints()),
		}
		if cc.LinkedBatteryKey != "" && !batteries[cc.LinkedBatteryKey] {
			cc.Orphaned = true
			d.warn(domain.Warningf(domain.CodeReferenceOrphaned, domain.CategoryCommandControl, cc.ID,
				"%s links missing weapon battery %q", def.ID, cc.LinkedBatteryKey))
		}
		if cc.LinkedSensorID != "" && !sensors[cc.LinkedSensorID] {
			cc.Orphaned = true
			d.warn(domain.Warningf(domain.CodeReferenceOrphaned, domain.CategoryCommandControl, cc.ID,
				"%s links missing sensor %q", def.ID, cc.LinkedSensorID))
		}
		out = append(out, cc)
	}
	return out
}

// damageZones keeps every zone but drops references to systems that did not
// load.
func (d *decoder) damageZones(recs []wire.DamageZoneRecord) []domain.DamageZone {
	installed := installedIDs(d.design)
	var out []domain.DamageZone
	for _, rec := range recs {
		zone := domain.DamageZone{Code: rec.Code}
		for _, id := range rec.SystemIDs {
			if !installed[id] {
				d.warn(domain.Warningf(domain.CodeReferenceDropped, domain.CategoryDamageZone, id,
					"damage zone %s dropped reference to missing system %q", rec.Code, id))
				continue
			}
			zone.SystemIDs = append(zone.SystemIDs, id)
		}
		out = append(out, zone)
	}
	return out
}

// priceFireControl reprices fire-control systems from the hull points of the
// battery they direct, now that weapons are decoded.
func (d *decoder) priceFireControl() {
	batteryHP := make(map[string]float64)
	for _, w := range d.design.Weapons {
		batteryHP[w.BatteryKey()] += w.HullPoints
	}
	for i := range d.design.CommandControl {
		cc := &d.design.CommandControl[i]
		def, ok := d.engine.catalog.FindType(domain.CategoryCommandControl, cc.TypeID)
		if !ok || def.ControlKind != domain.ControlFireControl || cc.LinkedBatteryKey == "" {
			continue
		}
		cc.Cost = d.engine.calc.FireControlCost(def, batteryHP[cc.LinkedBatteryKey], cc.Quantity)
	}
}

// trackSensors computes sensor tracking from the assigned control system.
// A missing assignment target leaves the sensor at base tracking, flagged.
func (d *decoder) trackSensors() {
	controls := make(map[string]domain.CommandControl, len(d.design.CommandControl))
	for _, cc := range d.design.CommandControl {
		controls[cc.ID] = cc
	}
	for i := range d.design.Sensors {
		s := &d.design.Sensors[i]
		def, ok := d.engine.catalog.FindType(domain.CategorySensor, s.TypeID)
		if !ok {
			continue
		}
		var control *domain.TypeDefinition
		if s.AssignedControlID != "" {
			cc, found := controls[s.AssignedControlID]
			if found {
				if ctrl, ok := d.engine.catalog.FindType(domain.CategoryCommandControl, cc.TypeID); ok {
					control = &ctrl
				}
			} else {
				s.Orphaned = true
				d.warn(domain.Warningf(domain.CodeReferenceOrphaned, domain.CategorySensor, s.ID,
					"sensor %s assigned to missing control system %q", s.TypeID, s.AssignedControlID))
			}
		}
		s.Tracking = d.engine.calc.Tracking(def, s.Quantity, control)
	}
}
