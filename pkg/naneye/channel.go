package naneye

import "fmt"

// Channel identifies which physical sensor produced a frame.
// The NanEye stereo head exposes exactly two sensors.
type Channel int

const (
	ChannelLeft  Channel = 0
	ChannelRight Channel = 1
)

// String returns a human-readable channel name.
func (c Channel) String() string {
	switch c {
	case ChannelLeft:
		return "left"
	case ChannelRight:
		return "right"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Valid reports whether c is one of the two known sensor channels.
func (c Channel) Valid() bool {
	return c == ChannelLeft || c == ChannelRight
}

// Mode selects which sensor channels a capture session uses.
type Mode int

const (
	// ModeCh1 captures only the left sensor.
	ModeCh1 Mode = iota
	// ModeCh2 captures only the right sensor.
	ModeCh2
	// ModeStereo captures both sensors for synchronized pairs.
	ModeStereo
)

// String returns the mode name used in config files and flags.
func (m Mode) String() string {
	switch m {
	case ModeCh1:
		return "ch1"
	case ModeCh2:
		return "ch2"
	case ModeStereo:
		return "stereo"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Stereo reports whether the mode captures both channels.
func (m Mode) Stereo() bool {
	return m == ModeStereo
}

// ParseMode converts a config/flag string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "ch1", "left":
		return ModeCh1, nil
	case "ch2", "right":
		return ModeCh2, nil
	case "stereo", "both":
		return ModeStereo, nil
	default:
		return 0, fmt.Errorf("unknown capture mode %q (want ch1, ch2 or stereo)", s)
	}
}

// SensorType identifies the NanEye sensor family attached to the eval box.
type SensorType int

const (
	NanEyeM SensorType = iota
	NanEye2D
	NanEyeXS
)

// String returns the sensor family name.
func (s SensorType) String() string {
	switch s {
	case NanEyeM:
		return "naneyem"
	case NanEye2D:
		return "naneye2d"
	case NanEyeXS:
		return "naneyexs"
	default:
		return fmt.Sprintf("sensor(%d)", int(s))
	}
}

// ParseSensorType converts a config/flag string into a SensorType.
func ParseSensorType(s string) (SensorType, error) {
	switch s {
	case "naneyem", "m":
		return NanEyeM, nil
	case "naneye2d", "2d":
		return NanEye2D, nil
	case "naneyexs", "xs":
		return NanEyeXS, nil
	default:
		return 0, fmt.Errorf("unknown sensor type %q (want naneyem, naneye2d or naneyexs)", s)
	}
}
