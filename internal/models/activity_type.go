package models

import "fmt"

// ActivityType is the motion classification of a sample or segment.
// The zero value is ActivityTypeUnknown.
type ActivityType int

// ActivityType constants
const (
	ActivityTypeUnknown ActivityType = iota
	ActivityTypeStationary
	ActivityTypeWalking
	ActivityTypeRunning
	ActivityTypeCycling
	ActivityTypeCar
	ActivityTypeBus
	ActivityTypeTrain
	ActivityTypeTram
	ActivityTypeMetro
	ActivityTypeMotorcycle
	ActivityTypeBoat
	ActivityTypeAirplane
	ActivityTypeBogus
)

var activityTypeNames = map[ActivityType]string{
	ActivityTypeUnknown:    "unknown",
	ActivityTypeStationary: "stationary",
	ActivityTypeWalking:    "walking",
	ActivityTypeRunning:    "running",
	ActivityTypeCycling:    "cycling",
	ActivityTypeCar:        "car",
	ActivityTypeBus:        "bus",
	ActivityTypeTrain:      "train",
	ActivityTypeTram:       "tram",
	ActivityTypeMetro:      "metro",
	ActivityTypeMotorcycle: "motorcycle",
	ActivityTypeBoat:       "boat",
	ActivityTypeAirplane:   "airplane",
	ActivityTypeBogus:      "bogus",
}

// AllActivityTypes lists every known type except unknown, in declaration order.
func AllActivityTypes() []ActivityType {
	types := make([]ActivityType, 0, len(activityTypeNames)-1)
	for t := ActivityTypeStationary; t <= ActivityTypeBogus; t++ {
		types = append(types, t)
	}
	return types
}

// String returns the lower camel name used in storage and JSON
func (t ActivityType) String() string {
	if name, ok := activityTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ActivityType(%d)", int(t))
}

// IsMoving reports whether the type describes motion (anything known but stationary)
func (t ActivityType) IsMoving() bool {
	return t != ActivityTypeUnknown && t != ActivityTypeStationary
}

// ParseActivityType parses a name produced by String. Empty input yields unknown.
func ParseActivityType(s string) (ActivityType, error) {
	if s == "" {
		return ActivityTypeUnknown, nil
	}
	for t, name := range activityTypeNames {
		if name == s {
			return t, nil
		}
	}
	return ActivityTypeUnknown, fmt.Errorf("unknown activity type %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (t ActivityType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *ActivityType) UnmarshalText(text []byte) error {
	parsed, err := ParseActivityType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
