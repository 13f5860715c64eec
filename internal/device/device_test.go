package device

import (
	"strings"
	"testing"

	"github.com/franc0r/frankly-fw-update/internal/ferr"
	"github.com/franc0r/frankly-fw-update/internal/hexfile"
	"github.com/franc0r/frankly-fw-update/internal/protocol"
	"github.com/franc0r/frankly-fw-update/internal/transport"
	"github.com/franc0r/frankly-fw-update/internal/transport/serial"
	"github.com/franc0r/frankly-fw-update/internal/transport/sim"
)

func newSimDevice(nodeID uint8) *sim.Device {
	dev := sim.NewDevice(nodeID, 0x08000000, 1024, 64, 8)
	dev.BootloaderVersion = 0x00010203
	dev.BootloaderCRC = 0xDEADBEEF
	dev.VID = 0x42
	dev.PID = 0x1337
	dev.PRD = 0x20250101
	dev.UID = [4]uint32{
		0x11111111 + uint32(nodeID),
		0x22222222 + uint32(nodeID),
		0x33333333 + uint32(nodeID),
		0x44444444 + uint32(nodeID),
	}
	return dev
}

func openNode(t *testing.T, net *sim.Network, nodeID uint8) transport.Transport {
	t.Helper()
	tr := sim.NewTransport(net)
	if err := tr.Open("sim", nil); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := tr.SetMode(transport.ModeNode(nodeID)); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}
	return tr
}

func TestScanNetwork_EmptyBusReturnsNoNodes(t *testing.T) {
	net := sim.NewNetwork()
	tr := sim.NewTransport(net)
	tr.Open("sim", nil)

	found, err := tr.ScanNetwork()
	if err != nil {
		t.Fatalf("ScanNetwork() error = %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("ScanNetwork() = %v, want none", found)
	}
}

func TestInit_ReadsIdentityConstantsAndComposesUID(t *testing.T) {
	net := sim.NewNetwork()
	net.AddDevice(newSimDevice(7))

	d := New(openNode(t, net, 7))
	if err := d.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if d.VID() != 0x42 || d.PID() != 0x1337 || d.PRD() != 0x20250101 {
		t.Errorf("identity = %#x %#x %#x, want 42 1337 20250101", d.VID(), d.PID(), d.PRD())
	}

	wantUID := [4]uint32{0x11111118, 0x22222229, 0x3333333A, 0x4444444B}
	if d.UID() != wantUID {
		t.Errorf("UID() = %#x, want %#x", d.UID(), wantUID)
	}

	wantUID128 := [16]byte{
		0x44, 0x44, 0x44, 0x4B,
		0x33, 0x33, 0x33, 0x3A,
		0x22, 0x22, 0x22, 0x29,
		0x11, 0x11, 0x11, 0x18,
	}
	if d.UID128() != wantUID128 {
		t.Errorf("UID128() = %x, want %x (UID4 most significant)", d.UID128(), wantUID128)
	}

	if d.FlashDesc() == nil {
		t.Fatal("Init() should derive a FlashDesc")
	}
}

func TestFlash_SingleByteImageMatchesDeviceCRC(t *testing.T) {
	net := sim.NewNetwork()
	net.AddDevice(newSimDevice(1))

	d := New(openNode(t, net, 1))
	if err := d.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	var flashEvents []ProgressUpdate
	d.progress = func(u ProgressUpdate) {
		if u.Kind == FlashProgress {
			flashEvents = append(flashEvents, u)
		}
	}

	if err := d.Flash(map[uint32]byte{0x08002000: 0xAB}); err != nil {
		t.Fatalf("Flash() error = %v", err)
	}

	if len(flashEvents) != 1 || flashEvents[0].Current != 1 || flashEvents[0].Total != 1 {
		t.Errorf("flash progress = %v, want a single 1/1 update", flashEvents)
	}

	devCRC, err := d.e.appCRCCalc.Read(d.t)
	if err != nil {
		t.Fatalf("appCRCCalc.Read() error = %v", err)
	}
	if devCRC == 0 {
		t.Error("device application CRC should be non-zero after flashing")
	}
}

func TestFlash_FromParsedHexImage(t *testing.T) {
	net := sim.NewNetwork()
	net.AddDevice(newSimDevice(1))

	d := New(openNode(t, net, 1))
	if err := d.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	hex := ":020000040800F2\n" +
		":102000000000012009230008D1220008D522000881\n" +
		":00000001FF\n"
	data, err := hexfile.Parse(strings.NewReader(hex))
	if err != nil {
		t.Fatalf("hexfile.Parse() error = %v", err)
	}

	if err := d.Flash(data); err != nil {
		t.Fatalf("Flash() error = %v", err)
	}
}

func TestFlash_InjectedCRCMismatchSkipsCommit(t *testing.T) {
	net := sim.NewNetwork()
	simDev := newSimDevice(1)
	simDev.InjectCRCFault(0)
	net.AddDevice(simDev)

	d := New(openNode(t, net, 1))
	if err := d.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	err := d.Flash(map[uint32]byte{0x08002000: 0xAB})
	if err == nil {
		t.Fatal("Flash() should fail when the simulator corrupts the page buffer")
	}
	var resultErr *ferr.ResultError
	if !asResultError(err, &resultErr) {
		t.Fatalf("Flash() error = %v (%T), want *ferr.ResultError", err, err)
	}
	if resultErr.Code != protocol.ResultErrValueMismatch {
		t.Errorf("Flash() result code = %v, want ErrValueMismatch", resultErr.Code)
	}

	appCRC := simDev.AppCRC()
	blankAppRegion := make([]byte, (simDev.PageCount-simDev.AppStartPage)*simDev.PageSize)
	for i := range blankAppRegion {
		blankAppRegion[i] = 0xFF
	}
	if wantCRC := protocol.ChecksumISOHDLC(blankAppRegion); appCRC != wantCRC {
		t.Error("flash should be untouched: the page buffer was never committed")
	}
}

func TestErase_EmitsOneProgressEventPerApplicationPage(t *testing.T) {
	net := sim.NewNetwork()
	net.AddDevice(newSimDevice(1))

	d := New(openNode(t, net, 1))
	if err := d.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	var events []ProgressUpdate
	d.progress = func(u ProgressUpdate) {
		if u.Kind == EraseProgress {
			events = append(events, u)
		}
	}

	if err := d.Erase(); err != nil {
		t.Fatalf("Erase() error = %v", err)
	}

	wantTotal := int(d.FlashDesc().PageCount - d.FlashDesc().AppStartPage)
	if len(events) != wantTotal {
		t.Fatalf("Erase() emitted %d events, want %d", len(events), wantTotal)
	}
	for i, e := range events {
		if e.Current != i+1 || e.Total != wantTotal {
			t.Errorf("event %d = %+v, want Current=%d Total=%d", i, e, i+1, wantTotal)
		}
	}
}

func TestSerialOpenFailureOnMissingEndpointCachesNoConstants(t *testing.T) {
	d := New(serial.New(0))
	nodeID := uint8(1)
	if err := d.t.Open("/dev/does-not-exist-franklyboot-test", &nodeID); err == nil {
		t.Skip("serial endpoint unexpectedly opened on this system")
	}

	if _, ok := d.e.bootloaderVersion.Cached(); ok {
		t.Error("no constant should be cached when Open never succeeded")
	}
}

func asResultError(err error, target **ferr.ResultError) bool {
	re, ok := err.(*ferr.ResultError)
	if !ok {
		return false
	}
	*target = re
	return true
}
