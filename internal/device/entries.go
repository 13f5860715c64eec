package device

import (
	"github.com/franc0r/frankly-fw-update/internal/entry"
	"github.com/franc0r/frankly-fw-update/internal/protocol"
)

// entries bundles every Entry the driver drives, built once per Device and
// never reassigned. Grouping them here keeps device.go focused on the
// init/reset/erase/flash sequencing (spec §4.10).
type entries struct {
	bootloaderVersion *entry.Entry
	bootloaderCRC     *entry.Entry
	vid               *entry.Entry
	pid               *entry.Entry
	prd               *entry.Entry
	uid               [4]*entry.Entry
	flashStartAddr    *entry.Entry
	flashPageSize     *entry.Entry
	flashNumPages     *entry.Entry
	appStartPage      *entry.Entry
	appCRCStored      *entry.Entry
	appCRCCalc        *entry.Entry

	ping                   *entry.Entry
	resetDevice            *entry.Entry
	startApp               *entry.Entry
	pageBufferClear        *entry.Entry
	pageBufferWriteWord    *entry.Entry
	pageBufferCalcCRC      *entry.Entry
	pageBufferWriteToFlash *entry.Entry
	flashErasePage         *entry.Entry
	flashWriteAppCRC       *entry.Entry
}

// newEntries builds the fixed entry table for a Frankly bootloader device
// (spec §3 entry kinds, §6 request table). AppInfoCRCStrd is a supplemented
// entry (SPEC_FULL.md §10): the original device exposes the last persisted
// application CRC distinct from the freshly recomputed AppInfoCRCCalc, and
// init() reads it alongside the other Const entries.
func newEntries() *entries {
	return &entries{
		bootloaderVersion: entry.New(entry.Const, "Bootloader Version", protocol.ReqDevInfoBootloaderVersion),
		bootloaderCRC:     entry.New(entry.Const, "Bootloader CRC", protocol.ReqDevInfoBootloaderCRC),
		vid:               entry.New(entry.Const, "Vendor ID", protocol.ReqDevInfoVID),
		pid:               entry.New(entry.Const, "Product ID", protocol.ReqDevInfoPID),
		prd:               entry.New(entry.Const, "Production Date", protocol.ReqDevInfoPRD),
		uid: [4]*entry.Entry{
			entry.New(entry.Const, "Unique ID Word 1", protocol.ReqDevInfoUID1),
			entry.New(entry.Const, "Unique ID Word 2", protocol.ReqDevInfoUID2),
			entry.New(entry.Const, "Unique ID Word 3", protocol.ReqDevInfoUID3),
			entry.New(entry.Const, "Unique ID Word 4", protocol.ReqDevInfoUID4),
		},
		flashStartAddr: entry.New(entry.Const, "Flash Start Address", protocol.ReqFlashInfoStartAddr),
		flashPageSize:  entry.New(entry.Const, "Flash Page Size", protocol.ReqFlashInfoPageSize),
		flashNumPages:  entry.New(entry.Const, "Flash Number of Pages", protocol.ReqFlashInfoNumPages),
		appStartPage:   entry.New(entry.Const, "Application Start Page", protocol.ReqAppInfoPageIdx),
		appCRCStored:   entry.New(entry.Const, "Application CRC (stored)", protocol.ReqAppInfoCRCStrd),
		appCRCCalc:     entry.New(entry.RO, "Application CRC (calculated)", protocol.ReqAppInfoCRCCalc),

		ping:                   entry.New(entry.Cmd, "Ping", protocol.ReqPing),
		resetDevice:            entry.New(entry.Cmd, "Reset Device", protocol.ReqResetDevice),
		startApp:               entry.New(entry.Cmd, "Start Application", protocol.ReqStartApp),
		pageBufferClear:        entry.New(entry.Cmd, "Page Buffer Clear", protocol.ReqPageBufferClear),
		pageBufferWriteWord:    entry.New(entry.Cmd, "Page Buffer Write Word", protocol.ReqPageBufferWriteWord),
		pageBufferCalcCRC:      entry.New(entry.Cmd, "Page Buffer Calc CRC", protocol.ReqPageBufferCalcCRC),
		pageBufferWriteToFlash: entry.New(entry.Cmd, "Page Buffer Write To Flash", protocol.ReqPageBufferWriteToFlash),
		flashErasePage:         entry.New(entry.Cmd, "Flash Erase Page", protocol.ReqFlashWriteErasePage),
		flashWriteAppCRC:       entry.New(entry.Cmd, "Flash Write App CRC", protocol.ReqFlashWriteAppCRC),
	}
}

// initOrder lists the Const entries in the fixed order init() reads them
// (spec §4.10).
func (e *entries) initOrder() []*entry.Entry {
	order := []*entry.Entry{
		e.bootloaderVersion, e.bootloaderCRC, e.vid, e.pid, e.prd,
	}
	order = append(order, e.uid[0], e.uid[1], e.uid[2], e.uid[3])
	order = append(order, e.flashStartAddr, e.flashPageSize, e.flashNumPages, e.appStartPage, e.appCRCStored)
	return order
}
