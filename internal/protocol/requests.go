package protocol

// Request identifies a single command on the wire (spec §3, §6).
type Request uint16

// Control block (0x0000).
const (
	ReqPing        Request = 0x0001
	ReqResetDevice Request = 0x0011
	ReqStartApp    Request = 0x0012
)

// Device identity constants (0x01xx).
const (
	ReqDevInfoBootloaderVersion Request = 0x0101
	ReqDevInfoBootloaderCRC     Request = 0x0102
	ReqDevInfoVID               Request = 0x0103
	ReqDevInfoPID               Request = 0x0104
	ReqDevInfoPRD               Request = 0x0105
	ReqDevInfoUID1              Request = 0x0106
	ReqDevInfoUID2              Request = 0x0107
	ReqDevInfoUID3              Request = 0x0108
	ReqDevInfoUID4              Request = 0x0109
)

// Flash-layout constants (0x02xx).
const (
	ReqFlashInfoStartAddr Request = 0x0201
	ReqFlashInfoPageSize  Request = 0x0202
	ReqFlashInfoNumPages  Request = 0x0203
)

// Application info (0x03xx). AppInfoCRCStrd is a supplemented entry (see
// SPEC_FULL.md §10) not present in spec.md's wire table; the flashing
// pipeline never reads it.
const (
	ReqAppInfoPageIdx Request = 0x0301
	ReqAppInfoCRCCalc Request = 0x0302
	ReqAppInfoCRCStrd Request = 0x0303
)

// Page-buffer commands (0x04xx).
const (
	ReqPageBufferClear        Request = 0x0401
	ReqPageBufferWriteWord    Request = 0x0402
	ReqPageBufferCalcCRC      Request = 0x0403
	ReqPageBufferWriteToFlash Request = 0x0404
)

// Flash commands (0x05xx).
const (
	ReqFlashWriteErasePage Request = 0x0501
	ReqFlashWriteAppCRC    Request = 0x0502
)

// allUID lists the four UID word requests in the fixed order init() reads
// them (spec §4.10).
var allUID = [4]Request{ReqDevInfoUID1, ReqDevInfoUID2, ReqDevInfoUID3, ReqDevInfoUID4}

// UIDRequests returns the UID word requests in read order.
func UIDRequests() [4]Request { return allUID }

// String renders the request as its canonical name for diagnostics.
func (r Request) String() string {
	switch r {
	case ReqPing:
		return "Ping"
	case ReqResetDevice:
		return "ResetDevice"
	case ReqStartApp:
		return "StartApp"
	case ReqDevInfoBootloaderVersion:
		return "DevInfoBootloaderVersion"
	case ReqDevInfoBootloaderCRC:
		return "DevInfoBootloaderCRC"
	case ReqDevInfoVID:
		return "DevInfoVID"
	case ReqDevInfoPID:
		return "DevInfoPID"
	case ReqDevInfoPRD:
		return "DevInfoPRD"
	case ReqDevInfoUID1:
		return "DevInfoUID1"
	case ReqDevInfoUID2:
		return "DevInfoUID2"
	case ReqDevInfoUID3:
		return "DevInfoUID3"
	case ReqDevInfoUID4:
		return "DevInfoUID4"
	case ReqFlashInfoStartAddr:
		return "FlashInfoStartAddr"
	case ReqFlashInfoPageSize:
		return "FlashInfoPageSize"
	case ReqFlashInfoNumPages:
		return "FlashInfoNumPages"
	case ReqAppInfoPageIdx:
		return "AppInfoPageIdx"
	case ReqAppInfoCRCCalc:
		return "AppInfoCRCCalc"
	case ReqAppInfoCRCStrd:
		return "AppInfoCRCStrd"
	case ReqPageBufferClear:
		return "PageBufferClear"
	case ReqPageBufferWriteWord:
		return "PageBufferWriteWord"
	case ReqPageBufferCalcCRC:
		return "PageBufferCalcCRC"
	case ReqPageBufferWriteToFlash:
		return "PageBufferWriteToFlash"
	case ReqFlashWriteErasePage:
		return "FlashWriteErasePage"
	case ReqFlashWriteAppCRC:
		return "FlashWriteAppCRC"
	default:
		return "Unknown"
	}
}
