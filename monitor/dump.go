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

// Package monitor presents the state of the expanded memory manager, either
// as plain text or as a scrollable terminal view.
package monitor

import (
	"fmt"
	"io"
	"strings"

	"github.com/andreas-jonsson/vxtems/emulator/peripheral/ems"
)

const pagesPerRow = 64

type line struct {
	text   string
	header bool
}

// ownerRune is the symbol used for a page in the pool map.
func ownerRune(owner uint16) rune {
	const symbols = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	switch {
	case owner == ems.NullHandle:
		return '.'
	case int(owner) < len(symbols):
		return rune(symbols[owner])
	}
	return '#'
}

func mappingText(mp ems.Mapping) string {
	if !mp.Mapped() {
		return "unmapped"
	}
	return fmt.Sprintf("handle %d page %d", mp.Handle, mp.Page)
}

func format(s ems.Snapshot) []line {
	var lines []line
	add := func(header bool, f string, a ...interface{}) {
		lines = append(lines, line{fmt.Sprintf(f, a...), header})
	}

	add(true, "EMS %s, %d of %d pages free (%d KB)", strings.ToUpper(s.Mode.String()), s.FreePages, s.TotalPages, s.FreePages*ems.PageSize/1024)
	add(false, "")

	add(true, "Page pool")
	for i := 0; i < len(s.Owners); i += pagesPerRow {
		var sb strings.Builder
		for _, o := range s.Owners[i:min(i+pagesPerRow, len(s.Owners))] {
			sb.WriteRune(ownerRune(o))
		}
		add(false, "%04X %s", i+1, sb.String())
	}
	add(false, "")

	add(true, "Handle  Pages  Name      Saved")
	for _, h := range s.Handles {
		saved := ""
		if h.Saved {
			saved = "yes"
		}
		add(false, "%-6d  %-5d  %-8s  %s", h.Handle, h.Pages, h.DisplayName(), saved)
	}
	add(false, "")

	add(true, "Segment  Mapping")
	for i, mp := range s.Standard {
		add(false, "%04X     %s", ems.PageFrameSegment+i*(ems.PageSize>>4), mappingText(mp))
	}
	for _, sm := range s.Segments {
		add(false, "%04X     %s", sm.Segment, mappingText(sm.Mapping))
	}
	return lines
}

// Dump writes the snapshot as text.
func Dump(w io.Writer, s ems.Snapshot) error {
	for _, l := range format(s) {
		if _, err := fmt.Fprintln(w, l.text); err != nil {
			return err
		}
	}
	return nil
}
