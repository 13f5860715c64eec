// Package flash implements the flash memory layout descriptor and the
// firmware page builder (spec §4.7, §4.9), grounded on the original
// source's FlashSection/FlashPage/AppFirmware types.
package flash

import (
	"sort"

	"github.com/franc0r/frankly-fw-update/internal/ferr"
)

// DefaultValue is the byte value flash reads as when erased, used to fill
// any address a firmware image doesn't touch within a page it does touch
// (spec §6 "Flash erased value").
const DefaultValue byte = 0xFF

// Desc describes a device's flash memory layout as read from its
// FlashInfo* and AppInfoPageIdx constants (spec §3 "FlashDesc").
type Desc struct {
	StartAddress uint32
	PageSize     uint32
	PageCount    uint32
	AppStartPage uint32
}

// NewDesc validates and builds a Desc. PageSize must be a positive multiple
// of 4 (word alignment) and AppStartPage must not exceed PageCount (spec §3
// invariant).
func NewDesc(startAddress, pageSize, pageCount, appStartPage uint32) (*Desc, error) {
	if pageSize == 0 || pageSize%4 != 0 {
		return nil, ferr.Errorf("flash page size %d is not a positive multiple of 4", pageSize)
	}
	if appStartPage > pageCount {
		return nil, ferr.Errorf("app start page %d exceeds page count %d", appStartPage, pageCount)
	}
	return &Desc{
		StartAddress: startAddress,
		PageSize:     pageSize,
		PageCount:    pageCount,
		AppStartPage: appStartPage,
	}, nil
}

// IsApplicationPage reports whether page lies in the application section
// [AppStartPage, PageCount).
func (d *Desc) IsApplicationPage(page uint32) bool {
	return page >= d.AppStartPage && page < d.PageCount
}

// PageAddress returns the absolute flash address of the first byte of page.
func (d *Desc) PageAddress(page uint32) uint32 {
	return d.StartAddress + page*d.PageSize
}

// AddressToPage maps an absolute flash address to its page index and
// byte offset within that page. Fails if addr lies before StartAddress or
// past the last page.
func (d *Desc) AddressToPage(addr uint32) (page uint32, offset uint32, err error) {
	if addr < d.StartAddress {
		return 0, 0, ferr.Errorf("address %#010x is below flash start %#010x", addr, d.StartAddress)
	}
	rel := addr - d.StartAddress
	page = rel / d.PageSize
	offset = rel % d.PageSize
	if page >= d.PageCount {
		return 0, 0, ferr.Errorf("address %#010x maps to page %d, past the last page %d", addr, page, d.PageCount-1)
	}
	return page, offset, nil
}

// ApplicationPages returns every application page index in ascending
// order.
func (d *Desc) ApplicationPages() []uint32 {
	pages := make([]uint32, 0, d.PageCount-d.AppStartPage)
	for p := d.AppStartPage; p < d.PageCount; p++ {
		pages = append(pages, p)
	}
	return pages
}

// sortedKeys returns the keys of a byte-indexed address map in ascending
// order, for the page builder.
func sortedKeys(m map[uint32]byte) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
