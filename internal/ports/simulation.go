package ports

import (
	"github.com/Agrid-Dev/thermograph/internal/simulation"
	"github.com/Agrid-Dev/thermograph/internal/thermal"
)

// SimulationService is the control-plane port used by controllers (HTTP/MQTT/etc).
type SimulationService interface {
	Get() simulation.Snapshot
	SetRunning(bool)
	SetBoundaryTemperature(id string, kelvin float64) error
	History(id string) (thermal.Series, error)
	Subscribe() (<-chan simulation.Snapshot, func())
}
