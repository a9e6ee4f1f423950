// internal/driver/ika/command.go
package ika

import (
	"github.com/shopspring/decimal"

	"namur-service/internal/namur"
)

// Shared NAMUR commands
const (
	ReadDeviceName      = "IN_NAME"
	ReadDeviceType      = "IN_TYPE"
	ReadSoftwareVersion = "IN_VERSION"
	ReadSoftwareID      = "IN_SOFTWARE_ID"
	Reset               = "RESET"

	// Watchdog commands take a value appended without a space
	SetWatchdogSafetyTemperature = "OUT_SP_12@"
	SetWatchdogSafetySpeed       = "OUT_SP_42@"
	WatchdogMode1                = "OUT_WD1@"
	WatchdogMode2                = "OUT_WD2@"
)

// Overhead stirrer commands
const (
	StirrerReadPT1000       = "IN_PV_3"
	StirrerReadSpeed        = "IN_PV_4"
	StirrerReadTorque       = "IN_PV_5"
	StirrerReadSetSpeed     = "IN_SP_4"
	StirrerReadTorqueLimit  = "IN_SP_5"
	StirrerReadSpeedLimit   = "IN_SP_6"
	StirrerReadSafetySpeed  = "IN_SP_8"
	StirrerSetSpeed         = "OUT_SP_4"
	StirrerSetTorqueLimit   = "OUT_SP_5"
	StirrerSetSpeedLimit    = "OUT_SP_6"
	StirrerSetSafetySpeed   = "OUT_SP_8"
	StirrerSetName          = "OUT_NAME"
	StirrerStartMotor       = "START_4"
	StirrerStopMotor        = "STOP_4"
	StirrerReadMotorStatus  = "STATUS_4"
	StirrerRotateClockwise  = "OUT_MODE_1"
	StirrerRotateCounterCW  = "OUT_MODE_2"
	StirrerReadRotationMode = "IN_MODE"
)

// Hotplate commands
const (
	HotplateReadProcessTemp      = "IN_PV_1"
	HotplateReadSurfaceTemp      = "IN_PV_2"
	HotplateReadSpeed            = "IN_PV_4"
	HotplateReadViscosityTrend   = "IN_PV_5"
	HotplateReadFluidTemp        = "IN_PV_7"
	HotplateReadProcessSetpoint  = "IN_SP_1"
	HotplateReadSurfaceSetpoint  = "IN_SP_2"
	HotplateReadTempLimit        = "IN_SP_3"
	HotplateReadSpeedSetpoint    = "IN_SP_4"
	HotplateReadProcessHeater    = "STATUS_1"
	HotplateReadSurfaceHeater    = "STATUS_2"
	HotplateReadShakerStatus     = "STATUS_4"
	HotplateSetProcessSetpoint   = "OUT_SP_1"
	HotplateSetSurfaceSetpoint   = "OUT_SP_2"
	HotplateSetSpeedSetpoint     = "OUT_SP_4"
	HotplateStartHeater          = "START_1"
	HotplateStopHeater           = "STOP_1"
	HotplateStartMotor           = "START_4"
	HotplateStopMotor            = "STOP_4"
	HotplateSetOperatingModeA    = "SET_MODE_A"
	HotplateSetOperatingModeB    = "SET_MODE_B"
	HotplateSetOperatingModeD    = "SET_MODE_D"
	HotplateEurostarMarker       = namur.CrossWiredMarker
)

const hotplateEurostarHint = "hotplate is configured to talk to a Eurostar overhead stirrer; turn this off in the hotplate settings"

// Orbital shaker commands
const (
	ShakerReadTemp         = "IN_PV_2"
	ShakerReadSpeed        = "IN_PV_4"
	ShakerReadSetTemp      = "IN_SP_2"
	ShakerReadSetSpeed     = "IN_SP_4"
	ShakerSetTemp          = "OUT_SP_2"
	ShakerSetSpeed         = "OUT_SP_4"
	ShakerStartHeater      = "START_2"
	ShakerStopHeater       = "STOP_2"
	ShakerStartMotor       = "START_4"
	ShakerStopMotor        = "STOP_4"
	ShakerReadHeaterStatus = "STATUS_2"
	ShakerReadMotorStatus  = "STATUS_4"
)

// Vacuum pump commands. The pump echoes every command before its value.
const (
	VacuumReadParameters   = "IN_PARA1"
	VacuumReadStatus       = "IN_STATUS"
	VacuumReadDate         = "IN_DATE"
	VacuumReadDevice       = "IN_DEVICE"
	VacuumReadError        = "IN_ERROR"
	VacuumReadSetPressure  = "IN_SP_66"
	VacuumSetPressure      = "OUT_SP_66"
	VacuumReadPressure     = "IN_PV_66"
	VacuumReadMode         = "IN_MODE_66"
	VacuumSetMode          = "OUT_MODE_66"
	VacuumStartMeasurement = "START_66"
	VacuumStopMeasurement  = "STOP_66"
)

// VacuumErrorCodes maps IN_ERROR codes to operator guidance
var VacuumErrorCodes = map[int]string{
	3: "The device temperature has exceeded its limit. Power cycle the pump.",
	4: "The motor has overloaded. Power cycle the pump.",
	8: "The speed sensor has faulted. Contact service.",
	9: "The internal flash has a read or write error. Contact service.",
}

// OverheadStirrerTable returns the decode table for overhead stirrers
func OverheadStirrerTable() *namur.CommandTable {
	return namur.DefaultTable().Clone("overhead").
		Register(StirrerReadMotorStatus, namur.RuleBooleanFirstChar).
		Register(StirrerReadRotationMode, namur.RuleIdentity)
}

// HotplateTable returns the decode table for hotplate stirrers
func HotplateTable() *namur.CommandTable {
	return namur.DefaultTable().Clone("hotplate").
		Register(HotplateReadProcessHeater, namur.RuleTwoCharCode).
		Register(HotplateReadSurfaceHeater, namur.RuleUnsupported).
		Register(HotplateReadShakerStatus, namur.RuleBooleanFirstChar).
		WithSentinel(HotplateEurostarMarker, hotplateEurostarHint)
}

// ShakerTable returns the decode table for orbital shakers
func ShakerTable() *namur.CommandTable {
	return namur.DefaultTable().Clone("shaker").
		Register(ShakerReadHeaterStatus, namur.RuleTwoCharCode).
		Register(ShakerReadMotorStatus, namur.RuleBooleanFirstChar)
}

// VacuumTable returns the decode table for vacuum pumps
func VacuumTable() *namur.CommandTable {
	table := namur.DefaultTable().Clone("vacuum").
		Register(VacuumReadStatus, namur.RuleTwoCharCode)
	for _, verb := range []string{
		VacuumReadSetPressure,
		VacuumSetPressure,
		VacuumReadPressure,
		VacuumReadMode,
		VacuumSetMode,
		VacuumStartMeasurement,
		VacuumStopMeasurement,
		VacuumReadError,
		VacuumReadParameters,
	} {
		table.Register(verb, namur.RuleEchoPrefixed)
	}
	return table
}

// withValue appends a setpoint to a command. Whole numbers keep one
// decimal place, e.g. 42 -> "OUT_SP_5 42.0".
func withValue(command string, setpoint float64) string {
	d := decimal.NewFromFloat(setpoint)
	if d.IsInteger() {
		return command + " " + d.StringFixed(1)
	}
	return command + " " + d.String()
}

// withWholeValue truncates the setpoint to an integer the way the firmware does
func withWholeValue(command string, setpoint float64) string {
	return command + " " + decimal.NewFromFloat(setpoint).Truncate(0).String()
}
