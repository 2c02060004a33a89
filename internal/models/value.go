// Package models содержит структуры данных телеметрии и запросов к истории
package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Value хранит значение телеметрии в том виде, в котором его прислал Telemachus.
// Обычно это число или булево значение, но datalink может вернуть и строку,
// массив или null; такие значения сохраняются как есть и не участвуют в сравнениях.
type Value struct {
	raw json.RawMessage
}

var (
	jsonTrue  = []byte("true")
	jsonFalse = []byte("false")
	jsonNull  = []byte("null")
)

// NumberValue создает числовое значение
func NumberValue(f float64) Value {
	return Value{raw: json.RawMessage(strconv.FormatFloat(f, 'g', -1, 64))}
}

// BoolValue создает булево значение
func BoolValue(b bool) Value {
	if b {
		return Value{raw: json.RawMessage(jsonTrue)}
	}
	return Value{raw: json.RawMessage(jsonFalse)}
}

// RawValue оборачивает произвольный JSON без проверки
func RawValue(raw []byte) Value {
	return Value{raw: append(json.RawMessage(nil), raw...)}
}

// IsBool сообщает, является ли значение булевым
func (v Value) IsBool() bool {
	return bytes.Equal(v.raw, jsonTrue) || bytes.Equal(v.raw, jsonFalse)
}

// IsNull сообщает, что значения нет: JSON null или пустое значение
func (v Value) IsNull() bool {
	return len(v.raw) == 0 || bytes.Equal(v.raw, jsonNull)
}

// IsNumber сообщает, является ли значение JSON-числом
func (v Value) IsNumber() bool {
	if len(v.raw) == 0 {
		return false
	}
	c := v.raw[0]
	if c != '-' && (c < '0' || c > '9') {
		return false
	}
	_, err := strconv.ParseFloat(string(v.raw), 64)
	return err == nil
}

// Float возвращает значение для упорядочивания: число как есть, false/true как 0/1.
// Второй результат false для значений, которые нельзя сравнивать.
func (v Value) Float() (float64, bool) {
	switch {
	case bytes.Equal(v.raw, jsonTrue):
		return 1, true
	case bytes.Equal(v.raw, jsonFalse):
		return 0, true
	case v.IsNumber():
		f, _ := strconv.ParseFloat(string(v.raw), 64)
		return f, true
	}
	return 0, false
}

// Raw возвращает исходный JSON значения
func (v Value) Raw() json.RawMessage {
	if len(v.raw) == 0 {
		return json.RawMessage(jsonNull)
	}
	return v.raw
}

func (v Value) String() string {
	return string(v.Raw())
}

// MarshalJSON отдает значение без изменений
func (v Value) MarshalJSON() ([]byte, error) {
	return v.Raw(), nil
}

// UnmarshalJSON сохраняет копию исходного JSON
func (v *Value) UnmarshalJSON(data []byte) error {
	v.raw = append(json.RawMessage(nil), bytes.TrimSpace(data)...)
	return nil
}
