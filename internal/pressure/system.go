package pressure

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/mem"
)

// Thermal tier boundaries in millidegrees Celsius, matched against the
// hottest reported thermal zone.
const (
	fairTempMilliC     = 70000
	seriousTempMilliC  = 80000
	criticalTempMilliC = 90000
)

const defaultThermalRoot = "/sys/class/thermal"

// System is the real resource-pressure oracle. Thermal state comes from the
// kernel's thermal zones; memory pressure from the available-memory fraction.
// Hosts without a thermal tree report nominal rather than blocking scans.
type System struct {
	thermalRoot    string
	memoryFraction float64
}

// NewSystem creates a system oracle. memoryFraction is the available-memory
// fraction below which MemoryPressure reports true.
func NewSystem(memoryFraction float64) *System {
	return &System{
		thermalRoot:    defaultThermalRoot,
		memoryFraction: memoryFraction,
	}
}

// ThermalState returns the tier of the hottest thermal zone.
func (s *System) ThermalState() ThermalState {
	zones, err := filepath.Glob(filepath.Join(s.thermalRoot, "thermal_zone*", "temp"))
	if err != nil || len(zones) == 0 {
		return ThermalNominal
	}

	maxTemp := 0
	for _, zone := range zones {
		raw, err := os.ReadFile(zone)
		if err != nil {
			continue
		}
		temp, err := strconv.Atoi(strings.TrimSpace(string(raw)))
		if err != nil {
			continue
		}
		if temp > maxTemp {
			maxTemp = temp
		}
	}

	switch {
	case maxTemp >= criticalTempMilliC:
		return ThermalCritical
	case maxTemp >= seriousTempMilliC:
		return ThermalSerious
	case maxTemp >= fairTempMilliC:
		return ThermalFair
	default:
		return ThermalNominal
	}
}

// MemoryPressure reports whether the available-memory fraction is below the
// configured floor.
func (s *System) MemoryPressure() bool {
	vm, err := mem.VirtualMemory()
	if err != nil || vm.Total == 0 {
		return false
	}
	return float64(vm.Available)/float64(vm.Total) < s.memoryFraction
}
