package dictionary

// Identifier идентификатор объекта дерева
type Identifier struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
}

// Object узел дерева: корень, подсистема или измерение
type Object struct {
	Identifier Identifier `json:"identifier"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Location   string     `json:"location"`
	Telemetry  *Telemetry `json:"telemetry,omitempty"`
}

// Telemetry описание значений измерения
type Telemetry struct {
	Values []ValueDescriptor `json:"values"`
}

// ValueDescriptor описание одного поля измерения (значение или метка времени)
type ValueDescriptor struct {
	Key          string        `json:"key"`
	Source       string        `json:"source"`
	Name         string        `json:"name"`
	Units        string        `json:"units,omitempty"`
	Format       string        `json:"format"`
	Enumerations []Enumeration `json:"enumerations,omitempty"`
	Hints        Hints         `json:"hints"`
}

// Enumeration подпись булева значения
type Enumeration struct {
	String string `json:"string"`
	Value  bool   `json:"value"`
}

// Hints подсказки для выбора осей при отображении
type Hints struct {
	Range  int `json:"range,omitempty"`
	Domain int `json:"domain,omitempty"`
	X      int `json:"x,omitempty"`
	Y      int `json:"y,omitempty"`
}

// RootIdentifier идентификатор корня аппарата
func RootIdentifier() Identifier {
	return Identifier{Namespace: Namespace, Key: RootKey}
}

func location(key string) string {
	return Namespace + ":" + key
}

// Object возвращает объект по ключу; false, если ключ не найден
func (d *Dictionary) Object(key string) (*Object, bool) {
	id := Identifier{Namespace: Namespace, Key: key}

	if key == RootKey {
		return &Object{
			Identifier: id,
			Name:       d.Name,
			Type:       FolderType,
			Location:   RootLocation,
		}, true
	}

	for _, sub := range d.Subsystems {
		if sub.Identifier == key {
			return &Object{
				Identifier: id,
				Name:       sub.Name,
				Type:       FolderType,
				Location:   location(RootKey),
			}, true
		}
		for _, m := range sub.Measurements {
			if m.Identifier == key {
				return &Object{
					Identifier: id,
					Name:       m.Name,
					Type:       TelemetryType,
					Location:   location(sub.Identifier),
					Telemetry:  &Telemetry{Values: valueDescriptors(m)},
				}, true
			}
		}
	}

	return nil, false
}

// Composition возвращает дочерние объекты: подсистемы для корня,
// измерения для подсистемы, пустой список для остальных ключей
func (d *Dictionary) Composition(key string) []Identifier {
	children := []Identifier{}

	for _, sub := range d.Subsystems {
		switch key {
		case RootKey:
			children = append(children, Identifier{Namespace: Namespace, Key: sub.Identifier})
		case sub.Identifier:
			for _, m := range sub.Measurements {
				children = append(children, Identifier{Namespace: Namespace, Key: m.Identifier})
			}
		}
	}

	return children
}

func valueDescriptors(m Measurement) []ValueDescriptor {
	timestamp := ValueDescriptor{
		Key:    "utc",
		Source: "timestamp",
		Name:   "Timestamp",
		Format: "utc",
		Hints:  Hints{Domain: 1},
	}

	switch m.Type {
	case MeasurementFloat:
		timestamp.Hints.X = 1
		return []ValueDescriptor{
			{
				Key:    "value",
				Source: "value",
				Name:   "Value",
				Units:  m.Units,
				Format: "float",
				Hints:  Hints{Range: 1, Y: 1},
			},
			timestamp,
		}
	case MeasurementBoolean:
		return []ValueDescriptor{
			{
				Key:    "value",
				Source: "value",
				Name:   "Value",
				Units:  m.Units,
				Format: "enum",
				Enumerations: []Enumeration{
					{String: "ON", Value: true},
					{String: "OFF", Value: false},
				},
				Hints: Hints{Range: 1},
			},
			timestamp,
		}
	default:
		return []ValueDescriptor{}
	}
}
