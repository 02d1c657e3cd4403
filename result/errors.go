package result

import "errors"

var (
	// ErrConfiguration marks catalog wiring bugs: duplicate benchmark
	// names or a base name that resolves to no measurement.
	ErrConfiguration = errors.New("configuration error")

	// ErrExecution marks a failure that escaped a continuation during a
	// trial.
	ErrExecution = errors.New("execution failure")

	// ErrSerialization marks unreadable, malformed or unwritable result
	// files.
	ErrSerialization = errors.New("serialization error")

	// ErrNoBaseline is returned by Delta for measurements without a base.
	ErrNoBaseline = errors.New("measurement has no baseline")
)
