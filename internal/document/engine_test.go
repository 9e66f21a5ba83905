package document

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipyard/internal/calc"
	"shipyard/internal/catalog"
	"shipyard/internal/wire"
	"shipyard/pkg/domain"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

type recordingMetrics struct {
	ops   []string
	diags []domain.Diagnostic
}

func (m *recordingMetrics) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	m.ops = append(m.ops, fmt.Sprintf("%s:%t", op, success))
}

func (m *recordingMetrics) Diagnostic(d domain.Diagnostic) { m.diags = append(m.diags, d) }

func newTestEngine(opts ...Option) *Engine {
	seq := 0
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("gen-%d", seq)
		}),
	}
	return New(catalog.Bundled(), calc.New(), append(base, opts...)...)
}

// fullDocument installs one entity per category. Every instance is listed in
// a damage zone so stored ids survive loading.
func fullDocument() *wire.Document {
	stamp := fixedNow.Format(time.RFC3339Nano)
	return &wire.Document{
		Version:             wire.CurrentVersion,
		Name:                "Aurora",
		CreatedAt:           stamp,
		ModifiedAt:          stamp,
		Hull:                &wire.Ref{ID: "frigate"},
		ArmorLayers:         []wire.Ref{{ID: "light-armor"}, {ID: "heavy-armor"}},
		DesignProgressLevel: 7,
		DesignTechTracks:    []string{"energy"},
		PowerPlants:         []wire.InstallationRecord{{ID: "pp1", TypeID: "fusion-plant", Quantity: 1, HullPoints: 40}},
		FuelTanks:           []wire.InstallationRecord{{ID: "ft1", TypeID: "fusion-plant", HullPoints: 8}},
		Engines:             []wire.InstallationRecord{{ID: "en1", TypeID: "ion-drive", Quantity: 1, HullPoints: 80}},
		EngineFuelTanks:     []wire.InstallationRecord{{ID: "ef1", TypeID: "ion-drive", HullPoints: 10}},
		FTLDrive:            &wire.InstallationRecord{ID: "ftl1", TypeID: "stardrive", Quantity: 1},
		FTLFuelTanks:        []wire.InstallationRecord{{ID: "ff1", TypeID: "stardrive", HullPoints: 16}},
		LifeSupport:         []wire.InstallationRecord{{ID: "ls1", TypeID: "standard-life-support", Quantity: 2}},
		Accommodations:      []wire.InstallationRecord{{ID: "ac1", TypeID: "crew-quarters", Quantity: 4}},
		StoreSystems:        []wire.InstallationRecord{{ID: "st1", TypeID: "cargo-hold", Quantity: 1, HullPoints: 30}},
		GravitySystems:      []wire.InstallationRecord{{ID: "gr1", TypeID: "artificial-gravity", Quantity: 1}},
		Weapons: []wire.WeaponRecord{
			{ID: "w1", TypeID: "laser", MountType: "turret", Quantity: 2, Arcs: []string{"fore", "aft"}},
		},
		OrdnanceDesigns: []wire.OrdnanceDesignRecord{
			{ID: "o1", Name: "Lance", Kind: "missile", Size: 2, WarheadID: "high-explosive", PropulsionID: "chemical-rocket", GuidanceID: "active-seeker"},
		},
		LaunchSystems: []wire.LaunchSystemRecord{
			{ID: "l1", TypeID: "missile-rack", Quantity: 1, ExtraHullPoints: 2, Loadout: []wire.LoadoutRecord{{DesignID: "o1", Quantity: 8}}},
		},
		Defenses: []wire.InstallationRecord{{ID: "d1", TypeID: "point-defense", Quantity: 2}},
		Sensors:  []wire.SensorRecord{{ID: "s1", TypeID: "radar", Quantity: 1, ArcsCovered: 2, AssignedControlID: "cc2"}},
		CommandControl: []wire.CommandControlRecord{
			{ID: "cc1", TypeID: "fire-control", Quantity: 1, LinkedBatteryKey: "laser:turret"},
			{ID: "cc2", TypeID: "sensor-control", Quantity: 1, LinkedSensorID: "s1"},
		},
		HangarMisc: []wire.InstallationRecord{{ID: "h1", TypeID: "hangar-bay", Quantity: 1, HullPoints: 40}},
		DamageDiagramZones: []wire.DamageZoneRecord{
			{Code: "A", SystemIDs: []string{"pp1", "ft1", "en1", "ef1", "ftl1", "ff1", "ls1", "ac1", "st1", "gr1"}},
			{Code: "B", SystemIDs: []string{"w1", "l1", "d1", "cc1", "h1"}},
		},
		HitLocationChart: &domain.HitLocationChart{
			HitDie: 6,
			Columns: []domain.HitLocationColumn{
				{Direction: "fore", Entries: []domain.HitLocationEntry{{MinRoll: 1, MaxRoll: 3, ZoneCode: "A"}, {MinRoll: 4, MaxRoll: 6, ZoneCode: "B"}}},
			},
		},
		Faction:     "Concord",
		Role:        "escort",
		Designer:    "Yard 7",
		Description: "Picket frigate.",
	}
}

func TestDeserializeFullDocument(t *testing.T) {
	e := newTestEngine()
	res := e.Deserialize(context.Background(), fullDocument())
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Empty(t, res.Warnings)

	d := res.Design
	require.NotNil(t, d.Hull)
	assert.Equal(t, 1600.0, d.Hull.HullPoints)
	require.Len(t, d.ArmorLayers, 2)
	assert.Equal(t, 80.0, d.ArmorLayers[0].HullPoints)
	assert.Equal(t, 160.0, d.ArmorLayers[1].HullPoints)

	assert.Equal(t, 200.0, d.PowerPlants[0].PowerOutput)
	assert.False(t, d.PowerPlantFuel[0].Orphaned)
	assert.Equal(t, 16.0, d.PowerPlantFuel[0].Capacity)
	require.NotNil(t, d.FTLDrive)
	assert.Equal(t, 160.0, d.FTLDrive.HullPoints)

	assert.Equal(t, "pp1", d.PowerPlants[0].ID, "referenced ids are preserved")
	assert.Equal(t, 8.0, d.Weapons[0].HullPoints)
	assert.Equal(t, 26.0, d.CommandControl[0].Cost, "fire control priced from battery hull points")
	assert.Equal(t, 4, d.Sensors[0].Tracking, "radar plus sensor-control bonus")
	assert.Equal(t, 200.0, d.Defenses[0].Coverage)
	assert.Equal(t, []domain.LoadoutEntry{{DesignID: "o1", Quantity: 8}}, d.LaunchSystems[0].Loadout)
	assert.Equal(t, 18.0, d.OrdnanceDesigns[0].Cost)
	assert.Equal(t, domain.Constraints{ProgressLevel: 7, TechTracks: []string{"energy"}}, d.Constraints)
	assert.Equal(t, "Concord", d.Lore.Faction)
	assert.Equal(t, fixedNow, d.CreatedAt)
}

func TestRoundTrip(t *testing.T) {
	e := newTestEngine()
	first := e.Deserialize(context.Background(), fullDocument())
	require.True(t, first.Success)

	second := e.Deserialize(context.Background(), e.Serialize(*first.Design))
	require.True(t, second.Success, "errors: %v", second.Errors)
	assert.Empty(t, second.Warnings)
	assert.Equal(t, *first.Design, *second.Design)
}

func TestRoundTripThroughBytes(t *testing.T) {
	e := newTestEngine()
	first := e.Deserialize(context.Background(), fullDocument())
	require.True(t, first.Success)

	data, err := e.Encode(context.Background(), *first.Design)
	require.NoError(t, err)
	second, err := e.Decode(context.Background(), data)
	require.NoError(t, err)
	require.True(t, second.Success)
	assert.Equal(t, *first.Design, *second.Design)
}

func TestRoundTripIgnoresStoredDerivedValues(t *testing.T) {
	e := newTestEngine()
	res := e.Deserialize(context.Background(), fullDocument())
	require.True(t, res.Success)

	tampered := *res.Design
	weapons := domain.Replaced(tampered.Weapons, 0, tampered.Weapons[0])
	weapons[0].Cost = 999999
	tampered = tampered.WithWeapons(weapons)

	again := e.Deserialize(context.Background(), e.Serialize(tampered))
	require.True(t, again.Success)
	assert.Equal(t, res.Design.Weapons[0].Cost, again.Design.Weapons[0].Cost)
}

func TestSerializeStampsVersionAndTimestamps(t *testing.T) {
	e := newTestEngine()
	doc := e.Serialize(domain.Design{Name: "Empty", CreatedAt: fixedNow.Add(-time.Hour)})
	assert.Equal(t, wire.CurrentVersion, doc.Version)
	assert.Equal(t, fixedNow.Format(time.RFC3339Nano), doc.CreatedAt)
	assert.Equal(t, doc.CreatedAt, doc.ModifiedAt)
	assert.Nil(t, doc.Hull)
	assert.NotNil(t, doc.Weapons, "empty collections render as arrays")
}

func TestSerializeFoldsArmor(t *testing.T) {
	e := newTestEngine()
	one := e.Serialize(domain.Design{ArmorLayers: []domain.ArmorLayer{{TypeID: "light-armor"}}})
	require.NotNil(t, one.Armor)
	assert.Equal(t, "light-armor", one.Armor.ID)
	assert.Equal(t, []wire.Ref{{ID: "light-armor"}}, one.ArmorLayers)

	two := e.Serialize(domain.Design{ArmorLayers: []domain.ArmorLayer{{TypeID: "light-armor"}, {TypeID: "heavy-armor"}}})
	assert.Nil(t, two.Armor)
	assert.Len(t, two.ArmorLayers, 2)

	none := e.Serialize(domain.Design{})
	assert.Nil(t, none.Armor)
	assert.Empty(t, none.ArmorLayers)
}

func TestVersionGate(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	missing := e.Deserialize(ctx, &wire.Document{Name: "x"})
	assert.False(t, missing.Success)
	assert.Nil(t, missing.Design)
	require.Len(t, missing.Errors, 1)
	assert.Equal(t, domain.CodeVersionMissing, missing.Errors[0].Code)

	garbled := e.Deserialize(ctx, &wire.Document{Version: "two"})
	assert.False(t, garbled.Success)

	major := e.Deserialize(ctx, &wire.Document{Version: "3.0"})
	assert.False(t, major.Success)
	require.Len(t, major.Errors, 1)
	assert.Equal(t, domain.CodeVersionIncompatible, major.Errors[0].Code)

	for _, v := range []string{"2.1", "2.9"} {
		minor := e.Deserialize(ctx, &wire.Document{Version: v})
		assert.True(t, minor.Success, v)
		assert.True(t, hasCode(minor.Warnings, domain.CodeVersionMigrated), v)
	}

	current := e.Deserialize(ctx, &wire.Document{Version: wire.CurrentVersion})
	assert.True(t, current.Success)
	assert.Empty(t, current.Warnings)
}

func TestUnknownTypeIsOmittedWithWarning(t *testing.T) {
	e := newTestEngine()
	doc := &wire.Document{
		Version: wire.CurrentVersion,
		Hull:    &wire.Ref{ID: "frigate"},
		Weapons: []wire.WeaponRecord{
			{TypeID: "laser", MountType: "fixed"},
			{TypeID: "graviton-lance", MountType: "spinal"},
		},
	}
	res := e.Deserialize(context.Background(), doc)
	require.True(t, res.Success)
	require.Len(t, res.Design.Weapons, 1)
	assert.Equal(t, "laser", res.Design.Weapons[0].TypeID)
	require.Len(t, res.Warnings, 1)
	w := res.Warnings[0]
	assert.Equal(t, domain.CodeTypeNotFound, w.Code)
	assert.Equal(t, domain.CategoryWeapon, w.Category)
	assert.Contains(t, w.Message, "weapon")
	assert.Contains(t, w.Message, "graviton-lance")
}

func TestHullIsLoadCritical(t *testing.T) {
	e := newTestEngine()
	bad := e.Deserialize(context.Background(), &wire.Document{Version: wire.CurrentVersion, Hull: &wire.Ref{ID: "nonexistent"}})
	assert.False(t, bad.Success)
	assert.Nil(t, bad.Design)
	require.Len(t, bad.Errors, 1)
	assert.Equal(t, domain.CodeHullNotFound, bad.Errors[0].Code)

	none := e.Deserialize(context.Background(), &wire.Document{
		Version:     wire.CurrentVersion,
		Hull:        nil,
		ArmorLayers: []wire.Ref{{ID: "heavy-armor"}},
	})
	require.True(t, none.Success)
	assert.Nil(t, none.Design.Hull)
	require.Len(t, none.Design.ArmorLayers, 1)
	assert.Equal(t, domain.Derived{}, none.Design.ArmorLayers[0].Derived, "armor without a hull is zeroed")
}

func TestLegacyArmorFallback(t *testing.T) {
	e := newTestEngine()
	res := e.Deserialize(context.Background(), &wire.Document{
		Version: wire.CurrentVersion,
		Hull:    &wire.Ref{ID: "frigate"},
		Armor:   &wire.Ref{ID: "light-armor"},
	})
	require.True(t, res.Success)
	require.Len(t, res.Design.ArmorLayers, 1)
	assert.Equal(t, "light-armor", res.Design.ArmorLayers[0].TypeID)

	both := e.Deserialize(context.Background(), &wire.Document{
		Version:     wire.CurrentVersion,
		Hull:        &wire.Ref{ID: "frigate"},
		Armor:       &wire.Ref{ID: "light-armor"},
		ArmorLayers: []wire.Ref{{ID: "heavy-armor"}},
	})
	require.True(t, both.Success)
	require.Len(t, both.Design.ArmorLayers, 1)
	assert.Equal(t, "heavy-armor", both.Design.ArmorLayers[0].TypeID, "layered field wins")
}

func TestCoverageMigrationWithoutHullIsFlagged(t *testing.T) {
	e := newTestEngine()
	res := e.Deserialize(context.Background(), &wire.Document{
		Version:  "2.1",
		Defenses: []wire.InstallationRecord{{ID: "d1", TypeID: "point-defense", Quantity: 16}},
	})
	require.True(t, res.Success)
	require.Len(t, res.Design.Defenses, 1)
	assert.Equal(t, 16, res.Design.Defenses[0].Quantity, "quantity left as stored")
	assert.True(t, res.Has(domain.CodeMigrationSkipped), "warnings: %v", res.Warnings)

	current := e.Deserialize(context.Background(), &wire.Document{
		Version:  wire.CurrentVersion,
		Defenses: []wire.InstallationRecord{{ID: "d1", TypeID: "point-defense", Quantity: 16}},
	})
	assert.False(t, current.Has(domain.CodeMigrationSkipped), "current documents already store sets")
}

func TestCoverageMigrationExample(t *testing.T) {
	e := newTestEngine()
	res := e.Deserialize(context.Background(), &wire.Document{
		Version:  "2.1",
		Hull:     &wire.Ref{ID: "frigate"},
		Defenses: []wire.InstallationRecord{{TypeID: "point-defense", Quantity: 16}},
	})
	require.True(t, res.Success)
	require.Len(t, res.Design.Defenses, 1)
	assert.Equal(t, 1, res.Design.Defenses[0].Quantity)
	assert.True(t, containsMessage(res.Warnings, "16 → 1"), "warnings: %v", res.Warnings)
}

func TestRenamedIdentifiersLoad(t *testing.T) {
	e := newTestEngine()
	res := e.Deserialize(context.Background(), &wire.Document{
		Version: "2.0",
		Hull:    &wire.Ref{ID: "frigate"},
		Weapons: []wire.WeaponRecord{{TypeID: "particle-beam", MountType: "turret"}},
		CommandControl: []wire.CommandControlRecord{
			{TypeID: "fire-control-computer", LinkedBatteryKey: "particle-beam:turret"},
		},
	})
	require.True(t, res.Success)
	require.Len(t, res.Design.CommandControl, 1)
	cc := res.Design.CommandControl[0]
	assert.Equal(t, "fire-control", cc.TypeID)
	assert.Equal(t, "particle-accelerator:turret", cc.LinkedBatteryKey)
	assert.False(t, cc.Orphaned)
	assert.Equal(t, 26.0, cc.Cost, "10 base plus 2 per battery hull point")
	assert.False(t, hasCode(res.Warnings, domain.CodeTypeNotFound))
	assert.True(t, hasCode(res.Warnings, domain.CodeMigrationApplied))
}

func TestCrossReferenceRepair(t *testing.T) {
	e := newTestEngine()
	res := e.Deserialize(context.Background(), &wire.Document{
		Version:   wire.CurrentVersion,
		Hull:      &wire.Ref{ID: "frigate"},
		FuelTanks: []wire.InstallationRecord{{ID: "ft1", TypeID: "fusion-plant", HullPoints: 4}},
		LaunchSystems: []wire.LaunchSystemRecord{
			{TypeID: "missile-rack", Loadout: []wire.LoadoutRecord{{DesignID: "ghost", Quantity: 4}}},
		},
		Sensors: []wire.SensorRecord{{ID: "s1", TypeID: "lidar", AssignedControlID: "missing-cc"}},
		CommandControl: []wire.CommandControlRecord{
			{TypeID: "fire-control", LinkedBatteryKey: "laser:turret"},
			{TypeID: "sensor-control", LinkedSensorID: "s-gone"},
		},
		DamageDiagramZones: []wire.DamageZoneRecord{{Code: "A", SystemIDs: []string{"ft1", "vanished"}}},
	})
	require.True(t, res.Success)
	d := res.Design

	require.Len(t, d.PowerPlantFuel, 1)
	assert.True(t, d.PowerPlantFuel[0].Orphaned, "tank without a plant is kept and flagged")

	require.Len(t, d.LaunchSystems, 1)
	assert.Empty(t, d.LaunchSystems[0].Loadout, "loadout for a missing design is dropped")

	require.Len(t, d.Sensors, 1)
	assert.True(t, d.Sensors[0].Orphaned)
	assert.Equal(t, 3, d.Sensors[0].Tracking, "base tracking without a control system")

	require.Len(t, d.CommandControl, 2)
	assert.True(t, d.CommandControl[0].Orphaned)
	assert.True(t, d.CommandControl[1].Orphaned)

	require.Len(t, d.DamageZones, 1)
	assert.Equal(t, []string{"ft1"}, d.DamageZones[0].SystemIDs)

	assert.Len(t, filterCode(res.Warnings, domain.CodeReferenceOrphaned), 4)
	assert.Len(t, filterCode(res.Warnings, domain.CodeReferenceDropped), 2)
}

func TestInstanceIDPreservation(t *testing.T) {
	e := newTestEngine()
	res := e.Deserialize(context.Background(), &wire.Document{
		Version: wire.CurrentVersion,
		Hull:    &wire.Ref{ID: "frigate"},
		Weapons: []wire.WeaponRecord{
			{ID: "kept", TypeID: "laser", MountType: "fixed"},
			{ID: "kept", TypeID: "laser", MountType: "fixed"},
			{ID: "loose", TypeID: "laser", MountType: "fixed"},
			{TypeID: "laser", MountType: "fixed"},
		},
		DamageDiagramZones: []wire.DamageZoneRecord{{Code: "A", SystemIDs: []string{"kept"}}},
	})
	require.True(t, res.Success)
	ids := []string{}
	for _, w := range res.Design.Weapons {
		ids = append(ids, w.ID)
	}
	assert.Equal(t, []string{"kept", "gen-1", "gen-2", "gen-3"}, ids)

	require.Len(t, res.Warnings, 1, "only the duplicate referenced id is reported")
	dup := res.Warnings[0]
	assert.Equal(t, domain.CodeDuplicateID, dup.Code)
	assert.Equal(t, domain.CategoryWeapon, dup.Category)
	assert.Equal(t, "gen-1", dup.ID)
	assert.Contains(t, dup.Message, `"kept"`)
	assert.Equal(t, []string{"kept"}, res.Design.DamageZones[0].SystemIDs, "zone keeps pointing at the first holder")
}

func TestNormalizesParameters(t *testing.T) {
	e := newTestEngine()
	res := e.Deserialize(context.Background(), &wire.Document{
		Version:    wire.CurrentVersion,
		Hull:       &wire.Ref{ID: "frigate"},
		HangarMisc: []wire.InstallationRecord{{TypeID: "hangar-bay"}},
		Weapons:    []wire.WeaponRecord{{TypeID: "laser", Quantity: -3}},
	})
	require.True(t, res.Success)
	assert.Equal(t, 20.0, res.Design.HangarMisc[0].Size, "scalable size defaults to the minimum")
	assert.Equal(t, 1, res.Design.Weapons[0].Quantity)
}

func TestDecodeMalformed(t *testing.T) {
	e := newTestEngine()
	_, err := e.Decode(context.Background(), []byte(`{"version": "2.3", "weapons": {`))
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = e.Decode(context.Background(), []byte(`[1,2,3]`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDeserializeNilDocument(t *testing.T) {
	res := newTestEngine().Deserialize(context.Background(), nil)
	assert.False(t, res.Success)
	assert.Len(t, res.Errors, 1)
}

func TestDeserializeReportsMetrics(t *testing.T) {
	m := &recordingMetrics{}
	e := newTestEngine(WithMetrics(m))
	e.Deserialize(context.Background(), &wire.Document{
		Version: "2.2",
		Weapons: []wire.WeaponRecord{{TypeID: "nope"}},
	})
	assert.Equal(t, []string{"deserialize:true"}, m.ops)
	require.Len(t, m.diags, 2)
	assert.Equal(t, domain.CodeVersionMigrated, m.diags[0].Code)
	assert.Equal(t, domain.CodeTypeNotFound, m.diags[1].Code)
}

func TestDeserializeDoesNotModifyInput(t *testing.T) {
	doc := &wire.Document{
		Version:  "2.0",
		Hull:     &wire.Ref{ID: "frigate"},
		Weapons:  []wire.WeaponRecord{{TypeID: "particle-beam", MountType: "turret"}},
		Defenses: []wire.InstallationRecord{{TypeID: "point-defense", Quantity: 16}},
	}
	newTestEngine().Deserialize(context.Background(), doc)
	assert.Equal(t, "particle-beam", doc.Weapons[0].TypeID)
	assert.Equal(t, 16, doc.Defenses[0].Quantity)
}

func hasCode(diags []domain.Diagnostic, code string) bool {
	return len(filterCode(diags, code)) > 0
}

func filterCode(diags []domain.Diagnostic, code string) []domain.Diagnostic {
	var out []domain.Diagnostic
	for _, d := range diags {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

func containsMessage(diags []domain.Diagnostic, fragment string) bool {
	for _, d := range diags {
		if strings.Contains(d.Message, fragment) {
			return true
		}
	}
	return false
}
