package document

import (
	"shipyard/internal/wire"
	"shipyard/pkg/domain"
)

// referencedIDs collects every instance id some record points at. Only these
// ids survive a load; all others are regenerated.
func referencedIDs(doc *wire.Document) map[string]bool {
	refs := make(map[string]bool)
	add := func(id string) {
		if id != "" {
			refs[id] = true
		}
	}
	for _, z := range doc.DamageDiagramZones {
		for _, id := range z.SystemIDs {
			add(id)
		}
	}
	for _, cc := range doc.CommandControl {
		add(cc.LinkedSensorID)
	}
	for _, s := range doc.Sensors {
		add(s.AssignedControlID)
	}
	for _, l := range doc.LaunchSystems {
		for _, e := range l.Loadout {
			add(e.DesignID)
		}
	}
	return refs
}

// installedIDs returns the instance ids of every decoded entity.
func installedIDs(d domain.Design) map[string]bool {
	ids := make(map[string]bool)
	for _, group := range [][]domain.Installation{
		d.PowerPlants, d.Engines, d.LifeSupport, d.Accommodations,
		d.StoreSystems, d.GravitySystems, d.Defenses, d.HangarMisc,
	} {
		for _, it := range group {
			ids[it.ID] = true
		}
	}
	if d.FTLDrive != nil {
		ids[d.FTLDrive.ID] = true
	}
	for _, group := range [][]domain.FuelTank{d.PowerPlantFuel, d.EngineFuel, d.FTLFuel} {
		for _, t := range group {
			ids[t.ID] = true
		}
	}
	for _, w := range d.Weapons {
		ids[w.ID] = true
	}
	for _, l := range d.LaunchSystems {
		ids[l.ID] = true
	}
	for _, o := range d.OrdnanceDesigns {
		ids[o.ID] = true
	}
	for _, c := range d.CommandControl {
		ids[c.ID] = true
	}
	for _, s := range d.Sensors {
		ids[s.ID] = true
	}
	return ids
}

func typeIDs(items []domain.Installation) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[it.TypeID] = true
	}
	return out
}
