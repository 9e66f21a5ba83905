package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipyard/internal/catalog"
	"shipyard/internal/wire"
	"shipyard/pkg/domain"
)

func TestApplyRewritesTypeIDsAndBatteryKeys(t *testing.T) {
	doc := &wire.Document{
		Version: "2.0",
		Weapons: []wire.WeaponRecord{{ID: "w1", TypeID: "particle-beam", MountType: "turret"}},
		CommandControl: []wire.CommandControlRecord{
			{ID: "fc1", TypeID: "fire-control-computer", LinkedBatteryKey: "particle-beam:turret"},
		},
		Sensors:         []wire.SensorRecord{{ID: "s1", TypeID: "radar-array"}},
		Engines:         []wire.InstallationRecord{{ID: "e1", TypeID: "ion-engine", HullPoints: 40}},
		EngineFuelTanks: []wire.InstallationRecord{{ID: "f1", TypeID: "ion-engine", HullPoints: 4}},
	}
	out, notes := Default().Apply(doc, wire.MustParseVersion(doc.Version))

	assert.Equal(t, "particle-accelerator", out.Weapons[0].TypeID)
	assert.Equal(t, "particle-accelerator:turret", out.CommandControl[0].LinkedBatteryKey)
	assert.Equal(t, "fire-control", out.CommandControl[0].TypeID)
	assert.Equal(t, "radar", out.Sensors[0].TypeID)
	assert.Equal(t, "ion-drive", out.Engines[0].TypeID)
	assert.Equal(t, "ion-drive", out.EngineFuelTanks[0].TypeID, "fuel tanks follow their parent type")

	require.Len(t, notes, 6)
	for _, n := range notes {
		assert.Equal(t, domain.SeverityWarning, n.Severity)
		assert.Equal(t, domain.CodeMigrationApplied, n.Code)
		assert.Contains(t, n.Message, "→")
	}
	assert.Contains(t, notes[1].Message, "battery key particle-beam:turret → particle-accelerator:turret")

	assert.Equal(t, "particle-beam", doc.Weapons[0].TypeID, "input document untouched")
	assert.Equal(t, "particle-beam:turret", doc.CommandControl[0].LinkedBatteryKey)
}

func TestApplyOnlyRunsNewerSteps(t *testing.T) {
	doc := &wire.Document{
		Weapons: []wire.WeaponRecord{{TypeID: "particle-beam", MountType: "turret"}},
		Engines: []wire.InstallationRecord{{TypeID: "ion-engine"}},
	}
	out, notes := Default().Apply(doc, wire.MustParseVersion("2.2"))
	assert.Equal(t, "particle-beam", out.Weapons[0].TypeID, "2.1 rename already applied by writer")
	assert.Equal(t, "ion-drive", out.Engines[0].TypeID)
	assert.Len(t, notes, 1)

	out, notes = Default().Apply(doc, wire.Current)
	assert.Empty(t, notes)
	assert.Equal(t, doc.Engines, out.Engines)
}

func TestApplyChainsRenames(t *testing.T) {
	table := Table{Renames: []Rename{
		{Since: wire.MustParseVersion("2.3"), Category: domain.CategoryWeapon, From: "b", To: "c"},
		{Since: wire.MustParseVersion("2.1"), Category: domain.CategoryWeapon, From: "a", To: "b"},
	}}
	out, notes := table.Apply(&wire.Document{Weapons: []wire.WeaponRecord{{TypeID: "a"}}}, wire.MustParseVersion("2.0"))
	assert.Equal(t, "c", out.Weapons[0].TypeID)
	assert.Len(t, notes, 2)
}

func TestApplyNilDocument(t *testing.T) {
	out, notes := Default().Apply(nil, wire.Current)
	assert.Nil(t, out)
	assert.Nil(t, notes)
}

func TestCoverageUnitsExample(t *testing.T) {
	defenses := []wire.InstallationRecord{{ID: "pd", TypeID: "point-defense", Quantity: 16}}
	out, notes := Default().ApplyCoverageUnits(defenses, 1600, catalog.Bundled(), wire.MustParseVersion("2.1"))
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].Quantity)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "16 → 1")
	assert.Equal(t, 16, defenses[0].Quantity, "input untouched")
}

func TestCoverageUnitsSkips(t *testing.T) {
	defenses := []wire.InstallationRecord{
		{TypeID: "point-defense", Quantity: 16},
		{TypeID: "deflector-screen", Quantity: 3},
		{TypeID: "unknown", Quantity: 9},
	}
	table := Default()
	out, notes := table.ApplyCoverageUnits(defenses, 1600, catalog.Bundled(), wire.MustParseVersion("2.2"))
	assert.Equal(t, defenses, out, "documents at the coverage version already store sets")
	assert.Empty(t, notes)

	out, notes = table.ApplyCoverageUnits(defenses, 0, catalog.Bundled(), wire.MustParseVersion("2.0"))
	assert.Equal(t, defenses, out, "no hull, no conversion")
	require.Len(t, notes, 1, "only the coverage-based defense is flagged")
	assert.Equal(t, domain.CodeMigrationSkipped, notes[0].Code)
	assert.Contains(t, notes[0].Message, "point-defense quantity 16")

	out, notes = table.ApplyCoverageUnits(defenses, 1600, catalog.Bundled(), wire.MustParseVersion("2.0"))
	assert.Equal(t, 1, out[0].Quantity)
	assert.Equal(t, 3, out[1].Quantity)
	assert.Equal(t, 9, out[2].Quantity)
	assert.Len(t, notes, 1)
}

func TestCoverageSetsRounding(t *testing.T) {
	// 1600 hull points at 100 per set: 16 units make one set.
	cases := []struct {
		units int
		want  int
	}{
		{units: 4, want: 1},   // 0.25 floors to the minimum of one set
		{units: 8, want: 1},   // exactly half rounds away from zero
		{units: 23, want: 1},  // 1.4375
		{units: 24, want: 2},  // 1.5
		{units: 40, want: 3},  // 2.5
		{units: 0, want: 1},   // minimum
		{units: 160, want: 10},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CoverageSets(tc.units, 1600, 100), "units=%d", tc.units)
	}
}
