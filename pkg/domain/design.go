package domain

// Appended returns a new slice holding s followed by v. The input is never
// modified, so snapshots sharing s keep their contents.
func Appended[T any](s []T, v ...T) []T {
	out := make([]T, 0, len(s)+len(v))
	out = append(out, s...)
	return append(out, v...)
}

// Replaced returns a copy of s with the element at i set to v. An index out
// of range returns an unchanged copy.
func Replaced[T any](s []T, i int, v T) []T {
	out := make([]T, len(s))
	copy(out, s)
	if i >= 0 && i < len(out) {
		out[i] = v
	}
	return out
}

// Removed returns a copy of s without the elements matching drop.
func Removed[T any](s []T, drop func(T) bool) []T {
	out := make([]T, 0, len(s))
	for _, v := range s {
		if !drop(v) {
			out = append(out, v)
		}
	}
	return out
}

// WithHull returns a copy of d using hull h.
func (d Design) WithHull(h *Hull) Design {
	d.Hull = h
	return d
}

// WithArmorLayers returns a copy of d using layers.
func (d Design) WithArmorLayers(layers []ArmorLayer) Design {
	d.ArmorLayers = layers
	return d
}

// WithPowerPlants returns a copy of d using plants.
func (d Design) WithPowerPlants(plants []Installation) Design {
	d.PowerPlants = plants
	return d
}

// WithPowerPlantFuel returns a copy of d using tanks.
func (d Design) WithPowerPlantFuel(tanks []FuelTank) Design {
	d.PowerPlantFuel = tanks
	return d
}

// WithEngines returns a copy of d using engines.
func (d Design) WithEngines(engines []Installation) Design {
	d.Engines = engines
	return d
}

// WithEngineFuel returns a copy of d using tanks.
func (d Design) WithEngineFuel(tanks []FuelTank) Design {
	d.EngineFuel = tanks
	return d
}

// WithFTLDrive returns a copy of d using drive.
func (d Design) WithFTLDrive(drive *Installation) Design {
	d.FTLDrive = drive
	return d
}

// WithFTLFuel returns a copy of d using tanks.
func (d Design) WithFTLFuel(tanks []FuelTank) Design {
	d.FTLFuel = tanks
	return d
}

// WithWeapons returns a copy of d using weapons.
func (d Design) WithWeapons(weapons []Weapon) Design {
	d.Weapons = weapons
	return d
}

// WithLaunchSystems returns a copy of d using launchers.
func (d Design) WithLaunchSystems(launchers []LaunchSystem) Design {
	d.LaunchSystems = launchers
	return d
}

// WithOrdnanceDesigns returns a copy of d using designs.
func (d Design) WithOrdnanceDesigns(designs []OrdnanceDesign) Design {
	d.OrdnanceDesigns = designs
	return d
}

// WithDefenses returns a copy of d using defenses.
func (d Design) WithDefenses(defenses []Installation) Design {
	d.Defenses = defenses
	return d
}

// WithCommandControl returns a copy of d using systems.
func (d Design) WithCommandControl(systems []CommandControl) Design {
	d.CommandControl = systems
	return d
}

// WithSensors returns a copy of d using sensors.
func (d Design) WithSensors(sensors []Sensor) Design {
	d.Sensors = sensors
	return d
}

// WithDamageZones returns a copy of d using zones.
func (d Design) WithDamageZones(zones []DamageZone) Design {
	d.DamageZones = zones
	return d
}

// WithInstallations returns a copy of d with the plain installation
// collection of category replaced. Categories without a plain installation
// collection return d unchanged.
func (d Design) WithInstallations(category Category, items []Installation) Design {
	switch category {
	case CategoryPowerPlant:
		d.PowerPlants = items
	case CategoryEngine:
		d.Engines = items
	case CategoryLifeSupport:
		d.LifeSupport = items
	case CategoryAccommodation:
		d.Accommodations = items
	case CategoryStoreSystem:
		d.StoreSystems = items
	case CategoryGravitySystem:
		d.GravitySystems = items
	case CategoryDefense:
		d.Defenses = items
	case CategoryHangarMisc:
		d.HangarMisc = items
	}
	return d
}

// Totals summarises a design's resource budget.
type Totals struct {
	HullPointsAvailable float64 `json:"hullPointsAvailable"`
	HullPointsUsed      float64 `json:"hullPointsUsed"`
	PowerDraw           float64 `json:"powerDraw"`
	PowerOutput         float64 `json:"powerOutput"`
	Cost                float64 `json:"cost"`
}

// Totals sums derived values across every installed entity.
func (d Design) Totals() Totals {
	var t Totals
	if d.Hull != nil {
		t.HullPointsAvailable = d.Hull.HullPoints + d.Hull.BonusHullPoints
		t.Cost = d.Hull.Cost
	}
	add := func(v Derived) {
		t.HullPointsUsed += v.HullPoints
		t.PowerDraw += v.Power
		t.PowerOutput += v.PowerOutput
		t.Cost += v.Cost
	}
	for _, a := range d.ArmorLayers {
		add(a.Derived)
	}
	for _, group := range [][]Installation{
		d.PowerPlants, d.Engines, d.LifeSupport, d.Accommodations,
		d.StoreSystems, d.GravitySystems, d.Defenses, d.HangarMisc,
	} {
		for _, it := range group {
			add(it.Derived)
		}
	}
	if d.FTLDrive != nil {
		add(d.FTLDrive.Derived)
	}
	for _, group := range [][]FuelTank{d.PowerPlantFuel, d.EngineFuel, d.FTLFuel} {
		for _, f := range group {
			add(f.Derived)
		}
	}
	for _, w := range d.Weapons {
		add(w.Derived)
	}
	for _, l := range d.LaunchSystems {
		add(l.Derived)
	}
	for _, c := range d.CommandControl {
		add(c.Derived)
	}
	for _, s := range d.Sensors {
		add(s.Derived)
	}
	// Ordnance is carried in launcher magazines; only its cost counts.
	for _, o := range d.OrdnanceDesigns {
		qty := 0
		for _, l := range d.LaunchSystems {
			for _, e := range l.Loadout {
				if e.DesignID == o.ID {
					qty += e.Quantity
				}
			}
		}
		t.Cost += o.Cost * float64(qty)
	}
	return t
}
