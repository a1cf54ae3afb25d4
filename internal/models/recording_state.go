package models

import "fmt"

// RecordingState is the state of the recording session when a sample was taken.
// The zero value is RecordingStateUnknown.
type RecordingState int

// RecordingState constants
const (
	RecordingStateUnknown RecordingState = iota
	RecordingStateRecording
	RecordingStateSleeping
	RecordingStateDeepSleeping
	RecordingStateWakeup
	RecordingStateStandby
	RecordingStateOff
)

var recordingStateNames = map[RecordingState]string{
	RecordingStateUnknown:      "unknown",
	RecordingStateRecording:    "recording",
	RecordingStateSleeping:     "sleeping",
	RecordingStateDeepSleeping: "deepSleeping",
	RecordingStateWakeup:       "wakeup",
	RecordingStateStandby:      "standby",
	RecordingStateOff:          "off",
}

// String returns the lower camel name used in storage and JSON
func (s RecordingState) String() string {
	if name, ok := recordingStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("RecordingState(%d)", int(s))
}

// IsSleepLike reports membership of the sleep group: standby, sleeping and deepSleeping.
// Wakeup is a transition out of sleep and is not part of the group.
func (s RecordingState) IsSleepLike() bool {
	switch s {
	case RecordingStateStandby, RecordingStateSleeping, RecordingStateDeepSleeping:
		return true
	}
	return false
}

// IsOff reports whether recording was switched off
func (s RecordingState) IsOff() bool {
	return s == RecordingStateOff
}

// ParseRecordingState parses a name produced by String. Empty input yields unknown.
func ParseRecordingState(s string) (RecordingState, error) {
	if s == "" {
		return RecordingStateUnknown, nil
	}
	for state, name := range recordingStateNames {
		if name == s {
			return state, nil
		}
	}
	return RecordingStateUnknown, fmt.Errorf("unknown recording state %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (s RecordingState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *RecordingState) UnmarshalText(text []byte) error {
	parsed, err := ParseRecordingState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
