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

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/spf13/afero"
	"golang.org/x/term"

	"github.com/andreas-jonsson/vxtems/emulator"
	"github.com/andreas-jonsson/vxtems/emulator/peripheral/ems"
	"github.com/andreas-jonsson/vxtems/emulator/script"
	"github.com/andreas-jonsson/vxtems/monitor"
	"github.com/andreas-jonsson/vxtems/version"
)

var scriptFile, dumpFile string

var (
	textMode,
	ver bool
)

func init() {
	flag.BoolVar(&ver, "v", false, "Print version information")
	flag.BoolVar(&textMode, "text", false, "Print the EMS state instead of opening the monitor")

	flag.StringVar(&scriptFile, "script", "", "Lua script to run against the machine")
	flag.StringVar(&dumpFile, "dump", "", "Write the final EMS state to file")
}

func main() {
	flag.Parse()

	if ver {
		fmt.Printf("%s (%s)\n", version.Current.FullString(), version.Hash)
		return
	}

	cfg, err := emulator.ConfigFromFlags()
	if err != nil {
		log.Fatal(err)
	}

	e, err := emulator.NewMachine(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer e.Close()

	fs := afero.NewOsFs()
	if scriptFile != "" {
		s := script.New(e.Machine, e.EMS, os.Stdout)
		err := s.RunFile(fs, scriptFile)
		s.Close()
		if err != nil {
			log.Fatal(err)
		}
	}

	snap := e.EMS.Manager().Snapshot()
	if dumpFile != "" {
		if err := writeDump(fs, dumpFile, snap); err != nil {
			log.Fatal(err)
		}
	}

	if textMode || !term.IsTerminal(int(os.Stdout.Fd())) {
		if err := monitor.Dump(os.Stdout, snap); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := monitor.Start(snap); err != nil {
		log.Fatal(err)
	}
}

func writeDump(fs afero.Fs, name string, snap ems.Snapshot) error {
	fp, err := fs.Create(name)
	if err != nil {
		return err
	}
	if err := monitor.Dump(fp, snap); err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}
