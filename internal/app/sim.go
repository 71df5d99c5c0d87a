package app

import (
	"github.com/GermanBionicSystems/thermoview/thermopoll"
)

// simSensor feeds the machine a synthetic temperature so the whole pipeline
// can run without a 1-wire bus: a slow triangle wave between 18 and 26°C,
// with a periodic two-cycle disconnect window to exercise the error path.
type simSensor struct {
	cycle int
}

func (s *simSensor) RequestConversion() error {
	return nil
}

func (s *simSensor) LastCelsius() float64 {
	s.cycle++
	phase := s.cycle % 16
	if phase == 12 || phase == 13 {
		return thermopoll.DisconnectedCelsius
	}
	if phase > 8 {
		phase = 16 - phase
	}
	return 18 + float64(phase)
}

var _ thermopoll.Sensor = &simSensor{}
