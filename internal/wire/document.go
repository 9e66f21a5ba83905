// Package wire defines the portable document format designs are saved in.
// Records carry type ids, user parameters and cross-reference ids only.
package wire

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"

	"shipyard/pkg/domain"
)

// Document is the on-disk shape of a design.
type Document struct {
	Version    string `json:"version"`
	Name       string `json:"name"`
	CreatedAt  string `json:"createdAt,omitempty"`
	ModifiedAt string `json:"modifiedAt,omitempty"`

	Hull *Ref `json:"hull"`
	// Armor mirrors ArmorLayers when exactly one layer exists, for readers
	// that predate layered armor.
	Armor       *Ref  `json:"armor"`
	ArmorLayers []Ref `json:"armorLayers"`

	DesignProgressLevel int      `json:"designProgressLevel"`
	DesignTechTracks    []string `json:"designTechTracks"`

	PowerPlants     []InstallationRecord   `json:"powerPlants"`
	FuelTanks       []InstallationRecord   `json:"fuelTanks"`
	Engines         []InstallationRecord   `json:"engines"`
	EngineFuelTanks []InstallationRecord   `json:"engineFuelTanks"`
	FTLDrive        *InstallationRecord    `json:"ftlDrive"`
	FTLFuelTanks    []InstallationRecord   `json:"ftlFuelTanks"`
	LifeSupport     []InstallationRecord   `json:"lifeSupport"`
	Accommodations  []InstallationRecord   `json:"accommodations"`
	StoreSystems    []InstallationRecord   `json:"storeSystems"`
	GravitySystems  []InstallationRecord   `json:"gravitySystems"`
	Weapons         []WeaponRecord         `json:"weapons"`
	LaunchSystems   []LaunchSystemRecord   `json:"launchSystems"`
	OrdnanceDesigns []OrdnanceDesignRecord `json:"ordnanceDesigns"`
	Defenses        []InstallationRecord   `json:"defenses"`
	CommandControl  []CommandControlRecord `json:"commandControl"`
	Sensors         []SensorRecord         `json:"sensors"`
	HangarMisc      []InstallationRecord   `json:"hangarMisc"`

	DamageDiagramZones []DamageZoneRecord       `json:"damageDiagramZones"`
	HitLocationChart   *domain.HitLocationChart `json:"hitLocationChart"`

	Faction           string `json:"faction,omitempty"`
	Role              string `json:"role,omitempty"`
	CommissioningDate string `json:"commissioningDate,omitempty"`
	Classification    string `json:"classification,omitempty"`
	Designer          string `json:"designer,omitempty"`
	Description       string `json:"description,omitempty"`
}

// Ref names a catalog entry.
type Ref struct {
	ID string `json:"id"`
}

// InstallationRecord stores quantity-and-size components. For fuel tanks
// TypeID names the parent type and HullPoints the tank size.
type InstallationRecord struct {
	ID         string  `json:"id,omitempty"`
	TypeID     string  `json:"typeId"`
	Quantity   int     `json:"quantity,omitempty"`
	HullPoints float64 `json:"hullPoints,omitempty"`
}

type WeaponRecord struct {
	ID               string   `json:"id,omitempty"`
	TypeID           string   `json:"typeId"`
	MountType        string   `json:"mountType"`
	GunConfiguration string   `json:"gunConfiguration,omitempty"`
	Concealed        bool     `json:"concealed,omitempty"`
	Quantity         int      `json:"quantity,omitempty"`
	Arcs             []string `json:"arcs,omitempty"`
}

type LoadoutRecord struct {
	DesignID string `json:"designId"`
	Quantity int    `json:"quantity"`
}

type LaunchSystemRecord struct {
	ID              string          `json:"id,omitempty"`
	TypeID          string          `json:"typeId"`
	Quantity        int             `json:"quantity,omitempty"`
	ExtraHullPoints float64         `json:"extraHullPoints,omitempty"`
	Loadout         []LoadoutRecord `json:"loadout,omitempty"`
}

type OrdnanceDesignRecord struct {
	ID           string  `json:"id,omitempty"`
	Name         string  `json:"name"`
	Kind         string  `json:"kind"`
	Size         float64 `json:"size"`
	WarheadID    string  `json:"warheadId"`
	PropulsionID string  `json:"propulsionId,omitempty"`
	GuidanceID   string  `json:"guidanceId,omitempty"`
}

type CommandControlRecord struct {
	ID               string  `json:"id,omitempty"`
	TypeID           string  `json:"typeId"`
	Quantity         int     `json:"quantity,omitempty"`
	HullPoints       float64 `json:"hullPoints,omitempty"`
	LinkedBatteryKey string  `json:"linkedBatteryKey,omitempty"`
	LinkedSensorID   string  `json:"linkedSensorId,omitempty"`
}

type SensorRecord struct {
	ID                string `json:"id,omitempty"`
	TypeID            string `json:"typeId"`
	Quantity          int    `json:"quantity,omitempty"`
	ArcsCovered       int    `json:"arcsCovered,omitempty"`
	AssignedControlID string `json:"assignedControlId,omitempty"`
}

type DamageZoneRecord struct {
	Code      string   `json:"code"`
	SystemIDs []string `json:"systems"`
}

// ToBytes renders doc as indented JSON.
func ToBytes(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FromBytes parses a document. Anything other than a well-formed JSON object
// matching the document shape yields nil.
func FromBytes(data []byte) *Document {
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	return &doc
}

// PeekVersion reads the version field without decoding the document. It
// returns "" when data is not a JSON object or carries no string version.
func PeekVersion(data []byte) string {
	if !gjson.ValidBytes(data) {
		return ""
	}
	v := gjson.GetBytes(data, "version")
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

// PeekName reads the name field without decoding the document.
func PeekName(data []byte) string {
	if !gjson.ValidBytes(data) {
		return ""
	}
	return gjson.GetBytes(data, "name").String()
}
