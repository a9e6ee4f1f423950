// internal/simulator/profile.go
package simulator

import "namur-service/internal/model"

// statusEncoding is how a STATUS_n answer is spelled
type statusEncoding int

const (
	statusFlag    statusEncoding = iota // "1 4" / "0 4"
	statusCode                          // "11 1" / "12 1"
	statusUnknown                       // "-90 2"
)

type status struct {
	flag     string
	encoding statusEncoding
}

// follower ties an actual value to a setpoint while a flag is on
type follower struct {
	setpoint string
	flag     string
	idle     float64
}

// profile describes how one instrument family answers
type profile struct {
	name       string
	deviceType string
	version    string
	softwareID string

	// echoes is true for families that repeat every command before the value
	echoes bool
	// ackControl is true when START/STOP are answered with an echo
	ackControl bool

	values    map[string]float64
	setters   map[string]string
	switches  map[string]string
	statuses  map[string]status
	followers map[string]follower
}

func profileFor(kind model.InstrumentType) profile {
	switch kind {
	case model.InstrumentHotplate:
		return profile{
			name:       "RCT digital",
			deviceType: "C-MAG HS7",
			version:    "1.2.0",
			values: map[string]float64{
				"IN_PV_5": 0,
				"IN_SP_1": 50,
				"IN_SP_2": 70,
				"IN_SP_3": 150,
				"IN_SP_4": 300,
			},
			setters:  map[string]string{"OUT_SP_1": "IN_SP_1", "OUT_SP_2": "IN_SP_2", "OUT_SP_4": "IN_SP_4"},
			switches: map[string]string{"START_1": "heater", "STOP_1": "heater", "START_4": "motor", "STOP_4": "motor"},
			statuses: map[string]status{
				"STATUS_1": {flag: "heater", encoding: statusCode},
				"STATUS_2": {flag: "heater", encoding: statusUnknown},
				"STATUS_4": {flag: "motor", encoding: statusFlag},
			},
			followers: map[string]follower{
				"IN_PV_1": {setpoint: "IN_SP_1", flag: "heater", idle: 25},
				"IN_PV_2": {setpoint: "IN_SP_2", flag: "heater", idle: 25},
				"IN_PV_4": {setpoint: "IN_SP_4", flag: "motor", idle: 0},
				"IN_PV_7": {setpoint: "IN_SP_1", flag: "heater", idle: 25},
			},
		}
	case model.InstrumentShaker:
		return profile{
			name:       "MATRIX ORBITAL",
			version:    "2.04",
			softwareID: "4711 2.04",
			values: map[string]float64{
				"IN_SP_2": 50,
				"IN_SP_4": 300,
			},
			setters:  map[string]string{"OUT_SP_2": "IN_SP_2", "OUT_SP_4": "IN_SP_4"},
			switches: map[string]string{"START_2": "heater", "STOP_2": "heater", "START_4": "motor", "STOP_4": "motor"},
			statuses: map[string]status{
				"STATUS_2": {flag: "heater", encoding: statusCode},
				"STATUS_4": {flag: "motor", encoding: statusFlag},
			},
			followers: map[string]follower{
				"IN_PV_2": {setpoint: "IN_SP_2", flag: "heater", idle: 25},
				"IN_PV_4": {setpoint: "IN_SP_4", flag: "motor", idle: 0},
			},
		}
	case model.InstrumentVacuum:
		return profile{
			name:    "VACSTAR control",
			version: "2.3",
			echoes:  true,
			values: map[string]float64{
				"IN_SP_66": 500,
			},
			setters:  map[string]string{"OUT_SP_66": "IN_SP_66"},
			switches: map[string]string{"START_66": "measurement", "STOP_66": "measurement"},
			statuses: map[string]status{
				"IN_STATUS": {flag: "measurement", encoding: statusCode},
			},
			followers: map[string]follower{
				"IN_PV_66": {setpoint: "IN_SP_66", flag: "measurement", idle: 1013},
			},
		}
	default:
		return profile{
			name:       "EUROSTAR 60 digital",
			version:    "1.0",
			ackControl: true,
			values: map[string]float64{
				"IN_PV_3": 21.5,
				"IN_PV_5": 0,
				"IN_SP_4": 0,
				"IN_SP_5": 60,
				"IN_SP_6": 2000,
				"IN_SP_8": 2000,
			},
			setters: map[string]string{
				"OUT_SP_4": "IN_SP_4",
				"OUT_SP_5": "IN_SP_5",
				"OUT_SP_6": "IN_SP_6",
				"OUT_SP_8": "IN_SP_8",
			},
			switches: map[string]string{"START_4": "motor", "STOP_4": "motor"},
			statuses: map[string]status{
				"STATUS_4": {flag: "motor", encoding: statusFlag},
			},
			followers: map[string]follower{
				"IN_PV_4": {setpoint: "IN_SP_4", flag: "motor", idle: 0},
			},
		}
	}
}
