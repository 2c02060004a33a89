// Package dictionary загружает словарь аппарата и строит по нему дерево объектов:
// корень аппарата, подсистемы и измерения
package dictionary

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// Namespace пространство имен идентификаторов объектов
	Namespace = "ksp.taxonomy"
	// RootKey ключ корневого объекта
	RootKey = "KSP Spacecraft"
	// TelemetryType тип объекта-измерения
	TelemetryType = Namespace + ".telemetry"
	// FolderType тип объекта-папки
	FolderType = "folder"
	// RootLocation расположение корня
	RootLocation = "ROOT"
)

// Типы измерений словаря
const (
	MeasurementFloat   = "float"
	MeasurementBoolean = "boolean"
)

// Dictionary словарь аппарата
type Dictionary struct {
	Name       string      `json:"name" yaml:"name"`
	Subsystems []Subsystem `json:"subsystems" yaml:"subsystems"`
}

// Subsystem подсистема аппарата
type Subsystem struct {
	Name         string        `json:"name" yaml:"name"`
	Identifier   string        `json:"identifier" yaml:"identifier"`
	Measurements []Measurement `json:"measurements" yaml:"measurements"`
}

// Measurement измерение; Identifier совпадает с ключом Telemachus
type Measurement struct {
	Name       string `json:"name" yaml:"name"`
	Identifier string `json:"identifier" yaml:"identifier"`
	Units      string `json:"units,omitempty" yaml:"units"`
	Type       string `json:"type" yaml:"type"`
}

// Load читает словарь из JSON- или YAML-файла, формат определяется по расширению
func Load(path string) (*Dictionary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary: %w", err)
	}

	var d Dictionary
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &d)
	default:
		err = json.Unmarshal(raw, &d)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse dictionary %s: %w", path, err)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate проверяет, что идентификаторы заданы и уникальны
func (d *Dictionary) Validate() error {
	seen := map[string]bool{RootKey: true}
	for _, sub := range d.Subsystems {
		if sub.Identifier == "" {
			return fmt.Errorf("subsystem %q has no identifier", sub.Name)
		}
		if seen[sub.Identifier] {
			return fmt.Errorf("duplicate identifier %q", sub.Identifier)
		}
		seen[sub.Identifier] = true

		for _, m := range sub.Measurements {
			if m.Identifier == "" {
				return fmt.Errorf("measurement %q in %s has no identifier", m.Name, sub.Identifier)
			}
			if seen[m.Identifier] {
				return fmt.Errorf("duplicate identifier %q", m.Identifier)
			}
			seen[m.Identifier] = true
		}
	}
	return nil
}

// Measurements возвращает идентификаторы всех измерений словаря
func (d *Dictionary) Measurements() []string {
	var ids []string
	for _, sub := range d.Subsystems {
		for _, m := range sub.Measurements {
			ids = append(ids, m.Identifier)
		}
	}
	return ids
}
