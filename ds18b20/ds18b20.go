// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ds18b20 controls a Dallas Semi / Maxim DS18B20 temperature sensor
// over a 1-wire bus without ever blocking on a conversion.
//
// The device needs a bounded, resolution-dependent amount of time to perform
// a conversion after one is triggered. This driver splits the two halves
// apart: RequestConversion fires the conversion and returns immediately,
// LastCelsius reads whatever the last completed conversion produced. The
// caller owns the timing in between, which makes the driver usable from a
// cooperative scheduler that must not stall.
package ds18b20

import (
	"errors"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/onewire"
)

// DisconnectedCelsius is returned by LastCelsius when no valid reading could
// be obtained: the device did not answer, the scratchpad CRC was wrong, or
// the scratchpad still holds the power-on value. It matches the
// DEVICE_DISCONNECTED_C convention of the Arduino DallasTemperature library,
// far outside the device's -55..+125 operating range.
const DisconnectedCelsius = -127.0

// Family code of the specific device type
type Family byte

func (f Family) String() string {
	switch f {
	case DS18S20:
		return "DS18S20"
	case DS18B20:
		return "DS18B20"
	default:
		return "unknown"
	}
}

const DS18B20 Family = 0x28
const DS18S20 Family = 0x10

// New returns an object that communicates over 1-wire to the DS18B20 sensor
// with the specified 64-bit address.
//
// resolutionBits must be in the range 9..12 and determines how many bits of
// precision the readings have. The resolution affects the conversion time:
// 9bits:94ms, 10bits:188ms, 11bits:375ms, 12bits:750ms. The configuration is
// written to the device's EEPROM when it differs, so this is a one-time
// setup cost.
func New(o onewire.Bus, addr onewire.Address, resolutionBits int) (*Dev, error) {
	if resolutionBits < 9 || resolutionBits > 12 {
		return nil, errors.New("ds18b20: invalid resolutionBits")
	}

	d := &Dev{onewire: onewire.Dev{Bus: o, Addr: addr}, resolution: resolutionBits}

	// Start by reading the scratchpad memory, this will tell us whether we can
	// talk to the device correctly and also how it's configured.
	spad, err := d.readScratchpad()
	if err != nil {
		return nil, err
	}

	// Change the resolution, if necessary (datasheet p.6).
	if int(spad[4]>>5) != resolutionBits-9 {
		// Set the value in the configuration register.
		if err := d.onewire.Tx([]byte{0x4e, 0, 0, byte((resolutionBits-9)<<5) | 0x1f}, nil); err != nil {
			return nil, err
		}
		// Copy the scratchpad to EEPROM to save the values.
		if err := d.onewire.TxPower([]byte{0x48}, nil); err != nil {
			return nil, err
		}
		// Wait for the write to complete.
		sleep(10 * time.Millisecond)
	}

	return d, nil
}

// ConversionTime returns how long a conversion at the given resolution takes,
// per datasheet p.6: 9bits:94ms, 10bits:188ms, 11bits:376ms, 12bits:752ms.
// It returns 0 for resolutions outside 9..12.
func ConversionTime(resolutionBits int) time.Duration {
	if resolutionBits < 9 || resolutionBits > 12 {
		return 0
	}
	return (94 << uint(resolutionBits-9)) * time.Millisecond
}

// Dev is a handle to a Dallas Semi / Maxim DS18B20 temperature sensor on a
// 1-wire bus.
type Dev struct {
	onewire    onewire.Dev // device on 1-wire bus
	resolution int         // resolution in bits (9..12)
}

func (d *Dev) Family() Family {
	return Family(d.onewire.Addr & 0xFF)
}

func (d *Dev) String() string {
	return d.Family().String() + "{" + d.onewire.String() + "}"
}

// Halt implements conn.Resource.
func (d *Dev) Halt() error {
	return nil
}

// RequestConversion triggers a temperature conversion on the device and
// returns without waiting for it to complete.
//
// The bus is left in strong pull-up mode to power parasitic devices during
// the conversion. The caller must allow ConversionTime(resolution) to elapse
// before the result of LastCelsius is meaningful.
func (d *Dev) RequestConversion() error {
	return d.onewire.TxPower([]byte{0x44}, nil)
}

// ConversionTime returns how long the device takes to perform a conversion
// at its configured resolution.
func (d *Dev) ConversionTime() time.Duration {
	return ConversionTime(d.resolution)
}

// LastCelsius reads the temperature resulting from the last conversion, in
// degrees Celsius.
//
// It never fails: any fault on the bus is reported as DisconnectedCelsius.
// A missing or disconnected device is an observable condition of the sensor,
// not an error to handle.
func (d *Dev) LastCelsius() float64 {
	spad, err := d.readScratchpad()
	if err != nil {
		return DisconnectedCelsius
	}

	c := d.parseTemperature(spad)

	// The device powers up with a value of 85°C, so if we read that odds are
	// very high that either no conversion was performed or that the conversion
	// failed due to lack of power. This prevents reading a temp of exactly
	// 85°C, but that seems like the right tradeoff.
	if c == 85 {
		return DisconnectedCelsius
	}

	return c
}

// parseTemperature from scratchpad and handle special calculation for DS18S20
func (d *Dev) parseTemperature(spad []byte) float64 {
	// spad[1] is MSB and spad[0] is LSB of the raw temperature value
	rawTemp := int16(spad[1])<<8 | int16(spad[0])

	if d.Family() == DS18S20 && spad[7] != 0 {
		// for higher resolution some additional calculation is required
		// TEMPERATURE = TEMP_READ - 0,25 + (COUNT_PER_C-COUNT_REMAIN)/COUNT_PER_C
		//  TEMP_READ = value from spad[1] (MSB) and spad[0] (LSB) with truncated last bit (0,5°C)
		//  COUNT_PER_C = spad[7]
		//  COUNT_REMAIN = spad[6]
		mask := 0xFFFE
		rawTemp = ((rawTemp & int16(mask)) << 3) + 12 - int16(spad[6])
	}
	// rawTemp has 4 fractional bits, sign extension is free since int16 is
	// signed. Datasheet p.4.
	return float64(rawTemp) / 16
}

// busError implements error and onewire.BusError.
type busError string

func (e busError) Error() string  { return string(e) }
func (e busError) BusError() bool { return true }

// readScratchpad reads the 9 bytes of scratchpad and checks the CRC.
// It returns the 8 bytes of scratchpad data (excluding the CRC byte).
func (d *Dev) readScratchpad() ([]byte, error) {
	// Read the scratchpad memory.
	var spad [9]byte
	if err := d.onewire.Tx([]byte{0xbe}, spad[:]); err != nil {
		return nil, err
	}

	// Check the scratchpad CRC.
	if !onewire.CheckCRC(spad[:]) {
		for _, s := range spad {
			if s != 0xff {
				return nil, busError("ds18b20: incorrect scratchpad CRC")
			}
		}
		return nil, busError("ds18b20: device did not respond")
	}

	return spad[:8], nil
}

var sleep = time.Sleep

var _ conn.Resource = &Dev{}
