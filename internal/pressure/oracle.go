// Package pressure reports device resource pressure (thermal state, memory)
// to the scan orchestrator. The oracle is an injected interface so tests can
// force any state deterministically.
package pressure

// ThermalState is a device temperature tier used to throttle background work.
type ThermalState int

const (
	ThermalNominal ThermalState = iota
	ThermalFair
	ThermalSerious
	ThermalCritical
)

// String returns the tier name.
func (t ThermalState) String() string {
	switch t {
	case ThermalNominal:
		return "nominal"
	case ThermalFair:
		return "fair"
	case ThermalSerious:
		return "serious"
	case ThermalCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Throttling reports whether scanning should pause or abort at this tier.
func (t ThermalState) Throttling() bool {
	return t == ThermalSerious || t == ThermalCritical
}

// Oracle is polled at scan decision points.
type Oracle interface {
	// ThermalState returns the current temperature tier
	ThermalState() ThermalState
	// MemoryPressure reports whether available memory is critically low
	MemoryPressure() bool
}

// Static is a fixed-answer oracle for tests and unsupported platforms.
type Static struct {
	Thermal ThermalState
	Memory  bool
}

// ThermalState returns the configured tier.
func (s *Static) ThermalState() ThermalState {
	return s.Thermal
}

// MemoryPressure returns the configured answer.
func (s *Static) MemoryPressure() bool {
	return s.Memory
}
