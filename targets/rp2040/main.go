//go:build rp2040 || rp2350

// Software I2C demo for RP2040/RP2350: runs a softwire bus on two ordinary
// GPIOs and reads an SHT3x temperature/humidity sensor through it. The bus
// satisfies the tinygo.org/x/drivers I2C interface, so any TinyGo device
// driver works here unmodified.
//
// Hardware setup:
//   - SHT3x sensor with SDA on GP4 and SCL on GP5
//   - 4.7k pull-up resistors to 3.3V on both lines (or -internal pull-ups,
//     enabled below, for short wires)
package main

import (
	"time"

	"machine"

	"tinygo.org/x/drivers/sht3x"

	"softwire/core"
)

const (
	sdaPin = machine.GP4
	sclPin = machine.GP5
)

func main() {
	// Give USB CDC a moment to enumerate so early prints are visible.
	time.Sleep(2 * time.Second)
	println("softwire: bit-banged I2C on GP4/GP5")

	bus := core.New(pinDriver{sda: sdaPin, scl: sclPin}, core.Config{})
	bus.SetClock(100000)
	bus.EnablePullups(true)
	bus.Begin()

	sensor := sht3x.New(bus)

	for {
		temp, humidity, err := sensor.ReadTemperatureHumidity()
		if err != nil {
			println("sht3x read failed:", err.Error())
			// Recover the bus before the next attempt.
			bus.Begin()
		} else {
			println("temperature:", temp, "m°C  humidity:", humidity, "m%")
		}
		time.Sleep(time.Second)
	}
}
