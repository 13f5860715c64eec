package flash

import (
	"sort"

	"github.com/franc0r/frankly-fw-update/internal/ferr"
	"github.com/franc0r/frankly-fw-update/internal/protocol"
)

// Page is one page-sized, word-aligned, default-filled chunk of a parsed
// firmware image (spec §3 "AppFirmware").
type Page struct {
	Index uint32
	Bytes []byte
}

// CRC returns the page's CRC-32/ISO-HDLC checksum.
func (p Page) CRC() uint32 {
	return protocol.ChecksumISOHDLC(p.Bytes)
}

// BuildAppFirmware partitions data into page-sized buckets using desc,
// filling bytes a touched page doesn't cover with DefaultValue (spec §4.9).
// An address inside a bootloader page fails with a ResultError carrying
// ResultErrInvalidArg; an address below the flash start or past the last
// page fails with the Error from Desc.AddressToPage. On failure no pages
// are returned. Pages are returned in ascending index order.
func BuildAppFirmware(desc *Desc, data map[uint32]byte) ([]Page, error) {
	pages := map[uint32]*Page{}

	for _, addr := range sortedKeys(data) {
		page, offset, err := desc.AddressToPage(addr)
		if err != nil {
			return nil, err
		}
		if !desc.IsApplicationPage(page) {
			return nil, &ferr.ResultError{
				Op:   "build firmware page",
				Code: protocol.ResultErrInvalidArg,
			}
		}

		p, ok := pages[page]
		if !ok {
			p = &Page{Index: page, Bytes: make([]byte, desc.PageSize)}
			for i := range p.Bytes {
				p.Bytes[i] = DefaultValue
			}
			pages[page] = p
		}
		p.Bytes[offset] = data[addr]
	}

	indices := make([]uint32, 0, len(pages))
	for idx := range pages {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	out := make([]Page, len(indices))
	for i, idx := range indices {
		out[i] = *pages[idx]
	}
	return out, nil
}

// LinearizeCRC computes the host-side whole-application CRC over the
// entire application section [AppStartPage, PageCount), filling any page
// pages doesn't touch with DefaultValue, matching what AppInfoCRCCalc
// recomputes on the device over the same full range (spec §4.10 step 3).
func LinearizeCRC(desc *Desc, pages []Page) uint32 {
	byIndex := make(map[uint32]Page, len(pages))
	for _, p := range pages {
		byIndex[p.Index] = p
	}

	buf := make([]byte, 0, (desc.PageCount-desc.AppStartPage)*desc.PageSize)
	for idx := desc.AppStartPage; idx < desc.PageCount; idx++ {
		if p, ok := byIndex[idx]; ok {
			buf = append(buf, p.Bytes...)
			continue
		}
		for i := uint32(0); i < desc.PageSize; i++ {
			buf = append(buf, DefaultValue)
		}
	}
	return protocol.ChecksumISOHDLC(buf)
}
