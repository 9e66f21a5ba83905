package document

import (
	"time"

	"shipyard/internal/wire"
	"shipyard/pkg/domain"
)

// Serialize builds the wire document for design at the current format
// version. Both timestamps are stamped with the engine clock.
func (e *Engine) Serialize(design domain.Design) *wire.Document {
	now := e.nowFn().UTC().Format(time.RFC3339Nano)
	doc := &wire.Document{
		Version:    wire.CurrentVersion,
		Name:       design.Name,
		CreatedAt:  now,
		ModifiedAt: now,

		ArmorLayers: make([]wire.Ref, 0, len(design.ArmorLayers)),

		DesignProgressLevel: design.Constraints.ProgressLevel,
		DesignTechTracks:    append(make([]string, 0, len(design.Constraints.TechTracks)), design.Constraints.TechTracks...),

		PowerPlants:     encodeInstallations(design.PowerPlants),
		FuelTanks:       encodeFuelTanks(design.PowerPlantFuel),
		Engines:         encodeInstallations(design.Engines),
		EngineFuelTanks: encodeFuelTanks(design.EngineFuel),
		FTLFuelTanks:    encodeFuelTanks(design.FTLFuel),
		LifeSupport:     encodeInstallations(design.LifeSupport),
		Accommodations:  encodeInstallations(design.Accommodations),
		StoreSystems:    encodeInstallations(design.StoreSystems),
		GravitySystems:  encodeInstallations(design.GravitySystems),
		Weapons:         encodeWeapons(design.Weapons),
		LaunchSystems:   encodeLaunchSystems(design.LaunchSystems),
		OrdnanceDesigns: encodeOrdnance(design.OrdnanceDesigns),
		Defenses:        encodeInstallations(design.Defenses),
		CommandControl:  encodeCommandControl(design.CommandControl),
		Sensors:         encodeSensors(design.Sensors),
		HangarMisc:      encodeInstallations(design.HangarMisc),

		DamageDiagramZones: encodeDamageZones(design.DamageZones),
		HitLocationChart:   cloneChart(design.HitLocationChart),

		Faction:           design.Lore.Faction,
		Role:              design.Lore.Role,
		CommissioningDate: design.Lore.CommissioningDate,
		Classification:    design.Lore.Classification,
		Designer:          design.Lore.Designer,
		Description:       design.Lore.Description,
	}
	if design.Hull != nil {
		doc.Hull = &wire.Ref{ID: design.Hull.TypeID}
	}
	for _, layer := range design.ArmorLayers {
		doc.ArmorLayers = append(doc.ArmorLayers, wire.Ref{ID: layer.TypeID})
	}
	if len(doc.ArmorLayers) == 1 {
		doc.Armor = &wire.Ref{ID: doc.ArmorLayers[0].ID}
	}
	if design.FTLDrive != nil {
		rec := encodeInstallation(*design.FTLDrive)
		doc.FTLDrive = &rec
	}
	return doc
}

func encodeInstallation(it domain.Installation) wire.InstallationRecord {
	return wire.InstallationRecord{ID: it.ID, TypeID: it.TypeID, Quantity: it.Quantity, HullPoints: it.Size}
}

func encodeInstallations(items []domain.Installation) []wire.InstallationRecord {
	out := make([]wire.InstallationRecord, 0, len(items))
	for _, it := range items {
		out = append(out, encodeInstallation(it))
	}
	return out
}

func encodeFuelTanks(tanks []domain.FuelTank) []wire.InstallationRecord {
	out := make([]wire.InstallationRecord, 0, len(tanks))
	for _, t := range tanks {
		out = append(out, wire.InstallationRecord{ID: t.ID, TypeID: t.TypeID, HullPoints: t.Size})
	}
	return out
}

func encodeWeapons(weapons []domain.Weapon) []wire.WeaponRecord {
	out := make([]wire.WeaponRecord, 0, len(weapons))
	for _, w := range weapons {
		out = append(out, wire.WeaponRecord{
			ID:               w.ID,
			TypeID:           w.TypeID,
			MountType:        w.MountType,
			GunConfiguration: w.GunConfiguration,
			Concealed:        w.Concealed,
			Quantity:         w.Quantity,
			Arcs:             append([]string(nil), w.Arcs...),
		})
	}
	return out
}

func encodeLaunchSystems(launchers []domain.LaunchSystem) []wire.LaunchSystemRecord {
	out := make([]wire.LaunchSystemRecord, 0, len(launchers))
	for _, l := range launchers {
		rec := wire.LaunchSystemRecord{ID: l.ID, TypeID: l.TypeID, Quantity: l.Quantity, ExtraHullPoints: l.ExtraHullPoints}
		for _, e := range l.Loadout {
			rec.Loadout = append(rec.Loadout, wire.LoadoutRecord{DesignID: e.DesignID, Quantity: e.Quantity})
		}
		out = append(out, rec)
	}
	return out
}

func encodeOrdnance(designs []domain.OrdnanceDesign) []wire.OrdnanceDesignRecord {
	out := make([]wire.OrdnanceDesignRecord, 0, len(designs))
	for _, o := range designs {
		out = append(out, wire.OrdnanceDesignRecord{
			ID:           o.ID,
			Name:         o.Name,
			Kind:         o.Kind,
			Size:         o.Size,
			WarheadID:    o.WarheadID,
			PropulsionID: o.PropulsionID,
			GuidanceID:   o.GuidanceID,
		})
	}
	return out
}

func encodeCommandControl(systems []domain.CommandControl) []wire.CommandControlRecord {
	out := make([]wire.CommandControlRecord, 0, len(systems))
	for _, c := range systems {
		out = append(out, wire.CommandControlRecord{
			ID:               c.ID,
			TypeID:           c.TypeID,
			Quantity:         c.Quantity,
			HullPoints:       c.Size,
			LinkedBatteryKey: c.LinkedBatteryKey,
			LinkedSensorID:   c.LinkedSensorID,
		})
	}
	return out
}

func encodeSensors(sensors []domain.Sensor) []wire.SensorRecord {
	out := make([]wire.SensorRecord, 0, len(sensors))
	for _, s := range sensors {
		out = append(out, wire.SensorRecord{
			ID:                s.ID,
			TypeID:            s.TypeID,
			Quantity:          s.Quantity,
			ArcsCovered:       s.ArcsCovered,
			AssignedControlID: s.AssignedControlID,
		})
	}
	return out
}

func encodeDamageZones(zones []domain.DamageZone) []wire.DamageZoneRecord {
	out := make([]wire.DamageZoneRecord, 0, len(zones))
	for _, z := range zones {
		out = append(out, wire.DamageZoneRecord{Code: z.Code, SystemIDs: append(make([]string, 0, len(z.SystemIDs)), z.SystemIDs...)})
	}
	return out
}

func cloneChart(chart *domain.HitLocationChart) *domain.HitLocationChart {
	if chart == nil {
		return nil
	}
	out := &domain.HitLocationChart{HitDie: chart.HitDie}
	for _, col := range chart.Columns {
		out.Columns = append(out.Columns, domain.HitLocationColumn{
			Direction: col.Direction,
			Entries:   append([]domain.HitLocationEntry(nil), col.Entries...),
		})
	}
	return out
}
