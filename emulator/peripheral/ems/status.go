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

import "fmt"

// Status is the LIM status byte returned in AH. Every non-zero status is also
// an error.
type Status byte

const (
	StatusOK              Status = 0x00
	SoftwareMalfunction   Status = 0x80
	HardwareMalfunction   Status = 0x81
	InvalidHandle         Status = 0x83
	InvalidFunction       Status = 0x84
	OutOfHandles          Status = 0x85
	SaveRestoreError      Status = 0x86
	OutOfLogicalPages     Status = 0x88
	ZeroPages             Status = 0x89
	LogicalPageOutOfRange Status = 0x8A
	IllegalPhysicalPage   Status = 0x8B
	PageMapSaved          Status = 0x8D
	NoSavedPageMap        Status = 0x8E
	InvalidSubfunction    Status = 0x8F
	UndefinedAttribute    Status = 0x90
	FeatureNotSupported   Status = 0x91
	MoveOverlap           Status = 0x92
	RegionExceedsHandle   Status = 0x93
	OffsetOutOfRange      Status = 0x95
	RegionTooLarge        Status = 0x96
	ExchangeOverlap       Status = 0x97
	InvalidMemoryType     Status = 0x98
	RegisterSetNotSupport Status = 0x9A
	RegisterSetUndefined  Status = 0x9D
	NotFound              Status = 0xA0
	HandleNameExists      Status = 0xA1
	AddressWrap           Status = 0xA2
	AccessDenied          Status = 0xA4
)

var statusNames = map[Status]string{
	StatusOK:              "no error",
	SoftwareMalfunction:   "software malfunction",
	HardwareMalfunction:   "hardware malfunction",
	InvalidHandle:         "invalid handle",
	InvalidFunction:       "function not supported",
	OutOfHandles:          "out of handles",
	SaveRestoreError:      "save/restore error",
	OutOfLogicalPages:     "not enough free pages",
	ZeroPages:             "tried to allocate zero pages",
	LogicalPageOutOfRange: "logical page out of range",
	IllegalPhysicalPage:   "illegal physical page",
	PageMapSaved:          "page map already saved",
	NoSavedPageMap:        "no saved page map",
	InvalidSubfunction:    "invalid subfunction",
	UndefinedAttribute:    "undefined attribute",
	FeatureNotSupported:   "feature not supported",
	MoveOverlap:           "source and destination overlap",
	RegionExceedsHandle:   "region exceeds handle allocation",
	OffsetOutOfRange:      "offset out of range",
	RegionTooLarge:        "region larger than 1MB",
	ExchangeOverlap:       "exchange regions overlap",
	InvalidMemoryType:     "invalid memory type",
	RegisterSetNotSupport: "alternate register set not supported",
	RegisterSetUndefined:  "alternate register set not defined",
	NotFound:              "handle name not found",
	HandleNameExists:      "handle name already exists",
	AddressWrap:           "region wraps past 1MB",
	AccessDenied:          "access denied by operating system",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status 0x%X", byte(s))
}

func (s Status) Error() string {
	return fmt.Sprintf("EMS: %s (0x%02X)", s.String(), byte(s))
}

// Err converts s to an error, nil for StatusOK.
func (s Status) Err() error {
	if s == StatusOK {
		return nil
	}
	return s
}
