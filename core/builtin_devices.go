package core

import "github.com/signalsfoundry/commnet-calculator/model"

// BuiltinDevices returns the stock antennas and tracking stations, in
// listing order. Each call returns a fresh slice.
func BuiltinDevices() []model.DeviceDefinition {
	return []model.DeviceDefinition{
		{Name: "Command Module", Aliases: []string{"internal"}, Power: 5e3, CombinabilityExponent: 1, Class: model.DeviceClassDirect},
		{Name: "Communotron 16", Aliases: []string{"C16"}, Power: 500e3, CombinabilityExponent: 1, Class: model.DeviceClassDirect},
		{Name: "Communotron 16-S", Aliases: []string{"C16S"}, Power: 500e3, CombinabilityExponent: 0, Class: model.DeviceClassDirect},
		{Name: "Communotron DTS-M1", Aliases: []string{"DTS-M1"}, Power: 2e9, CombinabilityExponent: 0.75, Class: model.DeviceClassDirect},
		{Name: "Communotron HG-55", Aliases: []string{"HG-55"}, Power: 15e9, CombinabilityExponent: 0.75, Class: model.DeviceClassDirect},
		{Name: "Communotron 88-88", Aliases: []string{"88-88"}, Power: 100e9, CombinabilityExponent: 0.75, Class: model.DeviceClassDirect},
		{Name: "HG-5 High Gain Antenna", Aliases: []string{"HG-5"}, Power: 5e6, CombinabilityExponent: 0.75, Class: model.DeviceClassRelay},
		{Name: "RA-2 Relay Antenna", Aliases: []string{"RA-2"}, Power: 2e9, CombinabilityExponent: 0.75, Class: model.DeviceClassRelay},
		{Name: "RA-15 Relay Antenna", Aliases: []string{"RA-15"}, Power: 15e9, CombinabilityExponent: 0.75, Class: model.DeviceClassRelay},
		{Name: "RA-100 Relay Antenna", Aliases: []string{"RA-100"}, Power: 100e9, CombinabilityExponent: 0.75, Class: model.DeviceClassRelay},
		{Name: "DSN Lv.1", Aliases: []string{"DSN1"}, Power: 2e9, CombinabilityExponent: 0, Class: model.DeviceClassDSN},
		{Name: "DSN Lv.2", Aliases: []string{"DSN2"}, Power: 50e9, CombinabilityExponent: 0, Class: model.DeviceClassDSN},
		{Name: "DSN Lv.3", Aliases: []string{"DSN3"}, Power: 250e9, CombinabilityExponent: 0, Class: model.DeviceClassDSN},
	}
}

// Default endpoint devices used when no specifier is given.
const (
	DefaultFromDevice = "DSN Lv.3"
	DefaultToDevice   = "Command Module"
)
