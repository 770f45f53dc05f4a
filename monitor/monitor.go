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

package monitor

import (
	"github.com/gdamore/tcell"

	"github.com/andreas-jonsson/vxtems/emulator/peripheral/ems"
)

var (
	textStyle   = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorBlack)
	headerStyle = tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorNavy).Bold(true)
	statusStyle = tcell.StyleDefault.Reverse(true)
)

// Monitor is a scrollable view of a snapshot.
type Monitor struct {
	screen tcell.Screen
	lines  []line
	scroll int
}

func New(screen tcell.Screen, s ems.Snapshot) *Monitor {
	return &Monitor{screen: screen, lines: format(s)}
}

// Start shows s on the terminal until the user quits.
func Start(s ems.Snapshot) error {
	tcell.SetEncodingFallback(tcell.EncodingFallbackASCII)
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err = screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	screen.HideCursor()
	screen.DisableMouse()
	screen.Clear()
	return New(screen, s).Run()
}

// Run processes events until Esc, F12 or q is pressed.
func (m *Monitor) Run() error {
	m.draw()
	for {
		switch ev := m.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			m.screen.Sync()
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEscape, tcell.KeyF12:
				return nil
			case tcell.KeyRune:
				if ev.Rune() == 'q' {
					return nil
				}
			case tcell.KeyUp:
				m.scrollBy(-1)
			case tcell.KeyDown:
				m.scrollBy(1)
			case tcell.KeyPgUp:
				m.scrollBy(-m.pageHeight())
			case tcell.KeyPgDn:
				m.scrollBy(m.pageHeight())
			case tcell.KeyHome:
				m.scroll = 0
			}
		}
		m.draw()
	}
}

func (m *Monitor) pageHeight() int {
	_, h := m.screen.Size()
	return max(h-1, 1)
}

func (m *Monitor) scrollBy(n int) {
	m.scroll = max(min(m.scroll+n, len(m.lines)-m.pageHeight()), 0)
}

func (m *Monitor) drawText(y int, style tcell.Style, text string) {
	w, _ := m.screen.Size()
	x := 0
	for _, r := range text {
		if x >= w {
			return
		}
		m.screen.SetContent(x, y, r, nil, style)
		x++
	}
	for ; x < w; x++ {
		m.screen.SetContent(x, y, ' ', nil, style)
	}
}

func (m *Monitor) draw() {
	m.screen.Clear()
	height := m.pageHeight()
	for y := 0; y < height && m.scroll+y < len(m.lines); y++ {
		l := m.lines[m.scroll+y]
		style := textStyle
		if l.header {
			style = headerStyle
		}
		m.drawText(y, style, l.text)
	}
	m.drawText(height, statusStyle, " Up/Down/PgUp/PgDn scroll, q quits")
	m.screen.Show()
}
