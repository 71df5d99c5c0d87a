package app

import (
	"testing"

	"github.com/GermanBionicSystems/thermoview/thermopoll"
)

func TestSimSensor(t *testing.T) {
	s := &simSensor{}
	sawDisconnect := false
	for i := 0; i < 64; i++ {
		c := s.LastCelsius()
		if c == thermopoll.DisconnectedCelsius {
			sawDisconnect = true
			continue
		}
		if c < 18 || c > 26 {
			t.Fatalf("cycle %d: %g°C outside the synthetic range", i, c)
		}
	}
	if !sawDisconnect {
		t.Error("the synthetic sensor never exercised the disconnect path")
	}
}
