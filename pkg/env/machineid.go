package env

import (
	"github.com/denisbrodbeck/machineid"
)

// MachineID retrieves the unique ID identifying the machine.
// An empty string is returned when the platform doesn't expose one.
func MachineID() string {
	id, err := machineid.ProtectedID("ceiling")
	if err != nil {
		return ""
	}
	return id
}
