// Package env provides information about the host the meter runs on.
package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID scopes the protected machine ID to this application.
const AppID = "freqmeter"

// MachineID retrieves the unique ID identifying the machine.
func MachineID() (string, error) {
	return machineid.ProtectedID(AppID)
}

// MeterID returns a stable ID for the meter: the first 12 characters of
// the machine ID, or the host name if the machine ID is unavailable.
func MeterID() string {
	id, err := MachineID()
	if err == nil && len(id) >= 12 {
		return id[:12]
	}
	glog.Warningf("machine id unavailable: %v", err)
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	return "meter"
}
