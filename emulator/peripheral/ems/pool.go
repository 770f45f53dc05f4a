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

package ems

import (
	"log"
	"math"
)

// PageSize is the size of one logical EMS page.
const PageSize = 0x4000

// PageIndex identifies a pool page. Valid pages are 1..Total, zero means none.
type PageIndex int32

const (
	NoPage     PageIndex = 0
	endOfChain PageIndex = -1
)

// Pool hands out chains of pages. The link table doubles as the free list:
// zero is a free page, a positive value links to the next page of the same
// chain and -1 terminates a chain.
type Pool struct {
	next []PageIndex
	mem  []byte
	free int
}

func NewPool(pages int) *Pool {
	return &Pool{
		next: make([]PageIndex, pages+1),
		mem:  make([]byte, pages*PageSize),
		free: pages,
	}
}

func (p *Pool) Total() int {
	return len(p.next) - 1
}

func (p *Pool) Free() int {
	return p.free
}

// Link returns the raw link table entry of page.
func (p *Pool) Link(page PageIndex) PageIndex {
	return p.next[page]
}

// Bytes returns the backing store of page. The slice aliases the pool.
func (p *Pool) Bytes(page PageIndex) []byte {
	offset := int(page-1) * PageSize
	return p.mem[offset : offset+PageSize : offset+PageSize]
}

// BestMatch finds the start of a free run for size pages. The first run of
// exactly size pages wins immediately, otherwise the smallest larger run is
// used. Returns NoPage if no run is big enough.
func (p *Pool) BestMatch(size int) PageIndex {
	var first, bestFirst PageIndex
	best := math.MaxInt

	index := PageIndex(1)
	for ; int(index) < len(p.next); index++ {
		if first == NoPage {
			if p.next[index] == 0 {
				first = index
			}
			continue
		}
		if p.next[index] != 0 {
			pages := int(index - first)
			if pages == size {
				return first
			} else if pages > size && pages < best {
				best = pages
				bestFirst = first
			}
			first = NoPage
		}
	}

	// The run touching the end of the table never sees a used page.
	if first != NoPage {
		if pages := int(index - first); pages >= size && pages < best {
			return first
		}
	}
	return bestFirst
}

// Allocate links pages into a new chain and returns its head. A contiguous
// chain is a single run and may fail with NoPage on a fragmented pool. A
// scattered chain is built from the first free runs found and only fails when
// there are not enough free pages.
func (p *Pool) Allocate(pages int, contiguous bool) PageIndex {
	if pages <= 0 {
		return NoPage
	}

	if contiguous {
		index := p.BestMatch(pages)
		if index == NoPage {
			return NoPage
		}
		for i := 0; i < pages-1; i++ {
			p.next[index+PageIndex(i)] = index + PageIndex(i) + 1
		}
		p.next[index+PageIndex(pages)-1] = endOfChain
		p.free -= pages
		return index
	}

	if p.free < pages {
		return NoPage
	}

	var head, last PageIndex
	for pages > 0 {
		index := p.BestMatch(1)
		if index == NoPage {
			log.Panicf("EMS: page pool corruption during allocate (%d pages accounted free, none found)", p.free)
		}
		for pages > 0 && int(index) < len(p.next) && p.next[index] == 0 {
			if last == NoPage {
				head = index
			} else {
				p.next[last] = index
			}
			// Terminate right away so the next BestMatch sees the page as used.
			p.next[index] = endOfChain
			last = index
			index++
			pages--
			p.free--
		}
	}
	return head
}

// Release returns every page of the chain to the pool.
func (p *Pool) Release(head PageIndex) {
	for head > 0 {
		next := p.next[head]
		if next == 0 {
			log.Panicf("EMS: page pool corruption, page %d of chain is free", head)
		}
		p.next[head] = 0
		p.free++
		head = next
	}
}

// Len counts the pages of a chain.
func (p *Pool) Len(head PageIndex) int {
	n := 0
	for ; head > 0; head = p.next[head] {
		n++
	}
	return n
}

// PageAt returns the n:th page of a chain or NoPage.
func (p *Pool) PageAt(head PageIndex, n int) PageIndex {
	for ; head > 0; head = p.next[head] {
		if n == 0 {
			return head
		}
		n--
	}
	return NoPage
}

// Pages lists a chain in order.
func (p *Pool) Pages(head PageIndex) []PageIndex {
	var pages []PageIndex
	for ; head > 0; head = p.next[head] {
		pages = append(pages, head)
	}
	return pages
}

// Reallocate resizes a chain and returns the new head. Shrinking and growing
// into the free pages right after the chain keep the head. Otherwise the chain
// is moved, with its contents, to a contiguous run. If no such run exists the
// missing pages are appended from wherever they can be found.
func (p *Pool) Reallocate(head PageIndex, pages int) (PageIndex, bool) {
	if head <= 0 {
		if pages == 0 {
			return NoPage, true
		}
		head = p.Allocate(pages, false)
		return head, head != NoPage
	}
	if pages == 0 {
		p.Release(head)
		return NoPage, true
	}

	var last PageIndex
	old := 0
	for index := head; index > 0; index = p.next[index] {
		old++
		last = index
	}

	if old == pages {
		return head, true
	}

	if old > pages {
		index := head
		for i := 1; i < pages; i++ {
			index = p.next[index]
		}
		tail := p.next[index]
		p.next[index] = endOfChain
		p.Release(tail)
		return head, true
	}

	need := pages - old
	if p.free < need {
		return head, false
	}

	avail := 0
	for index := last + 1; int(index) < len(p.next) && p.next[index] == 0 && avail < need; index++ {
		avail++
	}
	if avail >= need {
		index := last
		for i := 0; i < need; i++ {
			p.next[index] = index + 1
			index++
		}
		p.next[index] = endOfChain
		p.free -= need
		return head, true
	}

	if fresh := p.Allocate(pages, true); fresh != NoPage {
		dst := fresh
		for src := head; src > 0; src = p.next[src] {
			copy(p.Bytes(dst), p.Bytes(src))
			dst++
		}
		p.Release(head)
		return fresh, true
	}

	p.next[last] = p.Allocate(need, false)
	return head, true
}
