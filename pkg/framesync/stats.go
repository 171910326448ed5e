package framesync

// Stats is a point-in-time snapshot of queue activity.
type Stats struct {
	// Submitted counts frames accepted by Submit.
	Submitted uint64 `json:"submitted"`

	// Delivered counts frames handed to consumers (a pair counts as two).
	Delivered uint64 `json:"delivered"`

	// Evicted counts frames dropped oldest-first to make room. Non-zero
	// values just mean the consumer is slower than the sensors.
	Evicted uint64 `json:"evicted"`

	// Unroutable counts stereo-mode frames dropped for an unknown channel.
	Unroutable uint64 `json:"unroutable"`

	// Buffered is the number of frames currently held across channels.
	Buffered int `json:"buffered"`
}
