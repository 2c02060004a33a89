package dictionary

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const vesselJSON = `{
	"name": "Kerbal X",
	"subsystems": [
		{
			"name": "Orbit",
			"identifier": "orbit",
			"measurements": [
				{"name": "Altitude", "identifier": "v.altitude", "units": "m", "type": "float"},
				{"name": "Apoapsis", "identifier": "o.ApA", "units": "m", "type": "float"}
			]
		},
		{
			"name": "Control",
			"identifier": "control",
			"measurements": [
				{"name": "SAS", "identifier": "v.sasValue", "type": "boolean"}
			]
		}
	]
}`

const vesselYAML = `
name: Kerbal X
subsystems:
  - name: Orbit
    identifier: orbit
    measurements:
      - name: Altitude
        identifier: v.altitude
        units: m
        type: float
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadVessel(t *testing.T) *Dictionary {
	t.Helper()
	d, err := Load(writeFile(t, "vessel.dictionary.json", vesselJSON))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return d
}

func TestLoad_JSONAndYAML(t *testing.T) {
	d := loadVessel(t)
	if d.Name != "Kerbal X" || len(d.Subsystems) != 2 {
		t.Fatalf("Unexpected dictionary %+v", d)
	}
	if got := d.Measurements(); !reflect.DeepEqual(got, []string{"v.altitude", "o.ApA", "v.sasValue"}) {
		t.Errorf("Unexpected measurements %v", got)
	}

	y, err := Load(writeFile(t, "vessel.yaml", vesselYAML))
	if err != nil {
		t.Fatalf("Load YAML failed: %v", err)
	}
	if y.Subsystems[0].Measurements[0].Units != "m" {
		t.Errorf("Unexpected YAML dictionary %+v", y)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"invalid json", "d.json", `{"name":`, "failed to parse"},
		{"missing identifier", "d.json", `{"subsystems":[{"name":"Orbit"}]}`, "no identifier"},
		{"duplicate identifier", "d.json", `{"subsystems":[{"identifier":"orbit"},{"identifier":"orbit"}]}`, "duplicate"},
		{"root key reused", "d.json", `{"subsystems":[{"identifier":"KSP Spacecraft"}]}`, "duplicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestObject(t *testing.T) {
	d := loadVessel(t)

	root, ok := d.Object(RootKey)
	if !ok || root.Type != FolderType || root.Location != RootLocation || root.Name != "Kerbal X" {
		t.Errorf("Unexpected root %+v", root)
	}

	sub, ok := d.Object("orbit")
	if !ok || sub.Type != FolderType || sub.Location != "ksp.taxonomy:KSP Spacecraft" {
		t.Errorf("Unexpected subsystem %+v", sub)
	}

	alt, ok := d.Object("v.altitude")
	if !ok || alt.Type != TelemetryType || alt.Location != "ksp.taxonomy:orbit" {
		t.Fatalf("Unexpected measurement %+v", alt)
	}
	values := alt.Telemetry.Values
	if len(values) != 2 || values[0].Format != "float" || values[0].Units != "m" || values[0].Hints.Y != 1 {
		t.Errorf("Unexpected float descriptors %+v", values)
	}
	if values[1].Source != "timestamp" || values[1].Hints.Domain != 1 || values[1].Hints.X != 1 {
		t.Errorf("Unexpected timestamp descriptor %+v", values[1])
	}

	sas, _ := d.Object("v.sasValue")
	values = sas.Telemetry.Values
	if values[0].Format != "enum" || len(values[0].Enumerations) != 2 || !values[0].Enumerations[0].Value {
		t.Errorf("Unexpected boolean descriptors %+v", values)
	}
	if values[1].Hints.X != 0 {
		t.Errorf("Boolean timestamp should not be an x axis, got %+v", values[1].Hints)
	}

	if _, ok := d.Object("v.unknown"); ok {
		t.Error("Expected unknown key to be missing")
	}
}

func TestComposition(t *testing.T) {
	d := loadVessel(t)

	want := []Identifier{{Namespace, "orbit"}, {Namespace, "control"}}
	if got := d.Composition(RootKey); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	want = []Identifier{{Namespace, "v.altitude"}, {Namespace, "o.ApA"}}
	if got := d.Composition("orbit"); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if got := d.Composition("v.altitude"); got == nil || len(got) != 0 {
		t.Errorf("Expected empty composition for a measurement, got %#v", got)
	}
}
