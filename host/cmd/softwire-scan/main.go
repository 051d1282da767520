// softwire-scan probes an I2C bus driven over host GPIO for responding
// slaves, like i2cdetect, but through a bit-banged softwire bus.
//
// Backends:
//
//	-backend bridge  pin-control agent on a serial port (default)
//	-backend gpiod   Linux GPIO character device
//	-backend periph  any GPIO pins registered with periph.io
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"softwire/core"
	"softwire/host/bridge"
	"softwire/host/linuxgpio"
	"softwire/host/periphgpio"
	"softwire/host/serial"
)

var (
	backend = flag.String("backend", "bridge", "Line driver backend: bridge, gpiod or periph")
	device  = flag.String("device", "/dev/ttyACM0", "Serial device of the pin-control agent (bridge backend)")
	baud    = flag.Int("baud", 115200, "Baud rate (bridge backend)")
	chip    = flag.String("chip", "gpiochip0", "GPIO chip (gpiod backend)")
	sdaNum  = flag.Int("sda", 2, "SDA line offset (gpiod backend)")
	sclNum  = flag.Int("scl", 3, "SCL line offset (gpiod backend)")
	sdaPin  = flag.String("sda-pin", "GPIO2", "SDA pin name (periph backend)")
	sclPin  = flag.String("scl-pin", "GPIO3", "SCL pin name (periph backend)")
	freq    = flag.Uint("freq", 100000, "Bus clock frequency in Hz")
	timeout = flag.Duration("timeout", 250*time.Millisecond, "Per-operation bus timeout")
	pullups = flag.Bool("pullups", false, "Enable internal pull-ups on released lines")
)

func main() {
	flag.Parse()

	driver, errf, cleanup, err := openDriver()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	bus := core.New(driver, core.Config{Timeout: *timeout})
	bus.SetClock(uint32(*freq))
	bus.EnablePullups(*pullups)
	bus.Begin()

	fmt.Printf("Scanning %s bus at %d Hz...\n", *backend, *freq)

	var found []uint8
	for addr := uint8(0x08); addr <= 0x77; addr++ {
		bus.BeginTransmission(addr)
		status := bus.EndTransmission(true)
		if err := errf(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: line driver failed: %v\n", err)
			os.Exit(1)
		}
		switch status {
		case core.TxSuccess:
			found = append(found, addr)
		case core.TxTimeout:
			fmt.Fprintf(os.Stderr, "Error: bus timeout at address 0x%02X (missing pull-ups?)\n", addr)
			os.Exit(1)
		}
	}

	if len(found) == 0 {
		fmt.Println("No devices found.")
		return
	}
	for _, addr := range found {
		fmt.Printf("  device at 0x%02X\n", addr)
	}
}

// openDriver builds the selected line driver and returns it together with
// its sticky-error accessor and a cleanup function.
func openDriver() (core.LineDriver, func() error, func(), error) {
	switch *backend {
	case "bridge":
		cfg := serial.DefaultConfig(*device)
		cfg.Baud = *baud
		port, err := serial.Open(cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		// Drop stale replies from an interrupted session before the first
		// command, or every answer would be off by one.
		if err := port.Flush(); err != nil {
			port.Close()
			return nil, nil, nil, fmt.Errorf("flush %s: %w", *device, err)
		}
		d := bridge.New(port)
		return d, d.Err, func() { port.Close() }, nil

	case "gpiod":
		d, err := linuxgpio.New(*chip, *sdaNum, *sclNum)
		if err != nil {
			return nil, nil, nil, err
		}
		return d, d.Err, func() { d.Close() }, nil

	case "periph":
		if _, err := host.Init(); err != nil {
			return nil, nil, nil, fmt.Errorf("periph host init: %w", err)
		}
		sda := gpioreg.ByName(*sdaPin)
		scl := gpioreg.ByName(*sclPin)
		if sda == nil || scl == nil {
			return nil, nil, nil, fmt.Errorf("unknown pin %q or %q", *sdaPin, *sclPin)
		}
		d := periphgpio.New(sda, scl)
		return d, d.Err, func() {}, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown backend %q", *backend)
}
