/*
Copyright (c) 2019-2021 Andreas T Jonsson

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

package emulator

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/andreas-jonsson/vxtems/emulator/machine"
	"github.com/andreas-jonsson/vxtems/emulator/peripheral"
	"github.com/andreas-jonsson/vxtems/emulator/peripheral/ems"
	"github.com/andreas-jonsson/vxtems/emulator/peripheral/ram"
)

var (
	emsMode  = "emm386"
	emsPages int
	ramSize  = ram.DefaultSize
)

var scramble, verbose bool

func init() {
	if p, ok := os.LookupEnv("VXT_EMS_MODE"); ok {
		emsMode = p
	}

	if p, ok := os.LookupEnv("VXT_EMS_PAGES"); ok {
		if n, err := strconv.Atoi(p); err != nil {
			log.Printf("Invalid VXT_EMS_PAGES value %q: %v", p, err)
		} else {
			emsPages = n
		}
	}

	flag.StringVar(&emsMode, "ems", emsMode, "EMS emulation mode (emm386, board or mixed)")
	flag.IntVar(&emsPages, "ems-pages", emsPages, "Number of 16KB EMS pages, zero selects the mode default")
	flag.IntVar(&ramSize, "ram", ramSize, "Size of conventional memory in bytes")
	flag.BoolVar(&scramble, "scramble", false, "Fill conventional memory with random data")
	flag.BoolVar(&verbose, "ems-verbose", false, "Log every EMS call")
}

// Config selects how the machine is put together.
type Config struct {
	Mode     ems.Mode
	Pages    int
	RAM      int
	Scramble bool
	Verbose  bool
}

// ConfigFromFlags returns the configuration given on the command line and
// in the environment. Call it after flag.Parse.
func ConfigFromFlags() (Config, error) {
	mode, err := ems.ParseMode(emsMode)
	if err != nil {
		return Config{}, fmt.Errorf("%q: %w", emsMode, err)
	}
	if emsPages < 0 || emsPages > ems.MaxPages {
		return Config{}, fmt.Errorf("%d EMS pages: %w", emsPages, ErrInvalidPages)
	}
	return Config{
		Mode:     mode,
		Pages:    emsPages,
		RAM:      ramSize,
		Scramble: scramble,
		Verbose:  verbose,
	}, nil
}

var ErrInvalidPages = errors.New("invalid number of EMS pages")

// Emulator is a machine with conventional and expanded memory installed.
type Emulator struct {
	*machine.Machine

	RAM *ram.Device
	EMS *ems.Device
}

func NewMachine(cfg Config) (*Emulator, error) {
	e := &Emulator{
		RAM: &ram.Device{ // RAM (needs to go first since it maps the full memory range)
			Size:  cfg.RAM,
			Clear: !cfg.Scramble,
		},
		EMS: &ems.Device{
			Config:  ems.Config{Mode: cfg.Mode, Pages: cfg.Pages},
			Verbose: cfg.Verbose,
		},
	}

	m, errs := machine.New([]peripheral.Peripheral{e.RAM, e.EMS})
	if len(errs) > 0 {
		m.Close()
		return nil, errors.Join(errs...)
	}

	e.Machine = m
	e.Reset()
	return e, nil
}
