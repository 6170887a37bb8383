package assemble

import "errors"

var (
	// ErrAssemblyFailed wraps any failure while producing the combined
	// episode: the single-pass render, duration measurement, metadata
	// generation, or the final mux.
	ErrAssemblyFailed = errors.New("assembly failed")

	// ErrNoUnits means there is nothing to combine.
	ErrNoUnits = errors.New("no units to assemble")
)
