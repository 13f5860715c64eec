// Package sim implements an in-process reference transport and device
// model, grounded on the original source's SIMInterface/sim_api (com/sim.rs,
// utils/sim_api.rs) and on the CAN device simulator's request handling
// table (tests/utils/can_device_simulator/can_device_simulator.py), with the
// C-backed SIM_* primitives reimplemented purely in Go.
package sim

import (
	"github.com/franc0r/frankly-fw-update/internal/protocol"
)

// Device is a fully in-memory reference implementation of the Frankly
// bootloader wire protocol, used by tests and by the CLI's "--type sim"
// transport to exercise the driver without real hardware.
type Device struct {
	NodeID uint8

	BootloaderVersion uint32
	BootloaderCRC     uint32
	VID               uint32
	PID               uint32
	PRD               uint32
	UID               [4]uint32

	StartAddress uint32
	PageSize     uint32
	PageCount    uint32
	AppStartPage uint32

	flash      []byte
	pageBuffer []byte

	appCRCStored uint32

	// nextWordIndex is the packet_id PageBufferWriteWord must arrive with
	// next; reset to 0 by PageBufferClear (spec §4.10 step 2b: words must
	// arrive in strict ascending order 0..page_words, any gap fails).
	nextWordIndex int

	// SilentOnReset and SilentOnStartApp simulate a device that reboots
	// before its response leaves the wire, exercising the ComNoResponse
	// soft-timeout path (spec §9 open question #1).
	SilentOnReset    bool
	SilentOnStartApp bool

	faultOnPageAttempt int
	pageAttempts       int
}

// NewDevice builds a reference device with the given flash layout, every
// byte of flash erased to its default value.
func NewDevice(nodeID uint8, startAddress, pageSize, pageCount, appStartPage uint32) *Device {
	d := &Device{
		NodeID:             nodeID,
		StartAddress:       startAddress,
		PageSize:           pageSize,
		PageCount:          pageCount,
		AppStartPage:       appStartPage,
		flash:              make([]byte, pageSize*pageCount),
		pageBuffer:         make([]byte, pageSize),
		faultOnPageAttempt: -1,
	}
	fillDefault(d.flash)
	fillDefault(d.pageBuffer)
	return d
}

func fillDefault(b []byte) {
	for i := range b {
		b[i] = 0xFF
	}
}

// InjectCRCFault arranges for the attempt-th page buffer filled (0-based, in
// the order the driver flashes pages) to be corrupted on its last word just
// before PageBufferCalcCRC runs, producing a genuine CRC mismatch.
func (d *Device) InjectCRCFault(attempt int) { d.faultOnPageAttempt = attempt }

// AppCRC recomputes the CRC over the device's whole application flash
// region, exactly as AppInfoCRCCalc does on real hardware.
func (d *Device) AppCRC() uint32 {
	appOffset := d.AppStartPage * d.PageSize
	return protocol.ChecksumISOHDLC(d.flash[appOffset:])
}

// Handle processes one request frame and returns the response frame to
// send back, or ok=false if the device produces no response at all
// (SilentOnReset/SilentOnStartApp).
func (d *Device) Handle(req protocol.Frame) (resp protocol.Frame, ok bool) {
	resp = protocol.Frame{Request: req.Request, Result: protocol.ResultOk, PacketID: req.PacketID}

	switch req.Request {
	case protocol.ReqPing:
		resp.Data = d.BootloaderVersion

	case protocol.ReqResetDevice:
		if d.SilentOnReset {
			return protocol.Frame{}, false
		}

	case protocol.ReqStartApp:
		if d.SilentOnStartApp {
			return protocol.Frame{}, false
		}

	case protocol.ReqDevInfoBootloaderVersion:
		resp.Data = d.BootloaderVersion
	case protocol.ReqDevInfoBootloaderCRC:
		resp.Data = d.BootloaderCRC
	case protocol.ReqDevInfoVID:
		resp.Data = d.VID
	case protocol.ReqDevInfoPID:
		resp.Data = d.PID
	case protocol.ReqDevInfoPRD:
		resp.Data = d.PRD
	case protocol.ReqDevInfoUID1:
		resp.Data = d.UID[0]
	case protocol.ReqDevInfoUID2:
		resp.Data = d.UID[1]
	case protocol.ReqDevInfoUID3:
		resp.Data = d.UID[2]
	case protocol.ReqDevInfoUID4:
		resp.Data = d.UID[3]

	case protocol.ReqFlashInfoStartAddr:
		resp.Data = d.StartAddress
	case protocol.ReqFlashInfoPageSize:
		resp.Data = d.PageSize
	case protocol.ReqFlashInfoNumPages:
		resp.Data = d.PageCount

	case protocol.ReqAppInfoPageIdx:
		resp.Data = d.AppStartPage
	case protocol.ReqAppInfoCRCCalc:
		resp.Data = d.AppCRC()
	case protocol.ReqAppInfoCRCStrd:
		resp.Data = d.appCRCStored

	case protocol.ReqPageBufferClear:
		fillDefault(d.pageBuffer)
		d.pageAttempts++
		d.nextWordIndex = 0

	case protocol.ReqPageBufferWriteWord:
		if int(req.PacketID) != d.nextWordIndex {
			resp.Result = protocol.ResultErrInvalidArg
			break
		}
		d.writeBufferWord(int(req.PacketID), req.Data)
		d.nextWordIndex++

	case protocol.ReqPageBufferCalcCRC:
		computed := protocol.ChecksumISOHDLC(d.pageBuffer)
		resp.Data = computed
		if computed == req.Data {
			resp.Result = protocol.ResultOkValueMatch
		} else {
			resp.Result = protocol.ResultErrValueMismatch
		}

	case protocol.ReqPageBufferWriteToFlash:
		d.writeBufferToFlash(req.Data)

	case protocol.ReqFlashWriteErasePage:
		d.erasePage(req.Data)

	case protocol.ReqFlashWriteAppCRC:
		d.appCRCStored = d.AppCRC()

	default:
		resp.Result = protocol.ResultErrUnknownReq
	}

	return resp, true
}

func (d *Device) writeBufferWord(wordIndex int, word uint32) {
	if d.faultOnPageAttempt == d.pageAttempts-1 && wordIndex == len(d.pageBuffer)/4-1 {
		word ^= 0xFFFFFFFF
	}
	off := wordIndex * 4
	if off < 0 || off+4 > len(d.pageBuffer) {
		return
	}
	d.pageBuffer[off] = byte(word)
	d.pageBuffer[off+1] = byte(word >> 8)
	d.pageBuffer[off+2] = byte(word >> 16)
	d.pageBuffer[off+3] = byte(word >> 24)
}

func (d *Device) writeBufferToFlash(page uint32) {
	off := page * d.PageSize
	if off+d.PageSize > uint32(len(d.flash)) {
		return
	}
	copy(d.flash[off:off+d.PageSize], d.pageBuffer)
}

func (d *Device) erasePage(page uint32) {
	off := page * d.PageSize
	if off+d.PageSize > uint32(len(d.flash)) {
		return
	}
	fillDefault(d.flash[off : off+d.PageSize])
}
