package entry

import (
	"testing"

	"github.com/franc0r/frankly-fw-update/internal/ferr"
	"github.com/franc0r/frankly-fw-update/internal/protocol"
	"github.com/franc0r/frankly-fw-update/internal/transport"
)

// stubTransport is a minimal in-memory Transport for exercising Entry
// without a real link, in the spirit of moffa90-go-cyacd's mock device
// examples.
type stubTransport struct {
	sent  []protocol.Frame
	resp  []protocol.Frame
	index int
}

func (s *stubTransport) Open(string, *uint8) error { return nil }
func (s *stubTransport) Close() error              { return nil }

func (s *stubTransport) Send(f protocol.Frame) error {
	s.sent = append(s.sent, f)
	return nil
}

func (s *stubTransport) Recv() (protocol.Frame, error) {
	if s.index >= len(s.resp) {
		return protocol.Frame{}, &ferr.ComNoResponse{}
	}
	f := s.resp[s.index]
	s.index++
	return f, nil
}

func (s *stubTransport) ScanNetwork() ([]uint8, error)  { return nil, nil }
func (s *stubTransport) SetMode(transport.Mode) error   { return nil }

func TestEntryRead_CachesConst(t *testing.T) {
	st := &stubTransport{resp: []protocol.Frame{
		{Request: protocol.ReqDevInfoVID, Result: protocol.ResultOk, PacketID: 0, Data: 0x42},
	}}
	e := New(Const, "Vendor ID", protocol.ReqDevInfoVID)

	got, err := e.Read(st)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != 0x42 {
		t.Errorf("Read() = %#x, want 0x42", got)
	}

	got2, err := e.Read(st)
	if err != nil {
		t.Fatalf("second Read() error = %v", err)
	}
	if got2 != 0x42 {
		t.Errorf("second Read() = %#x, want 0x42", got2)
	}
	if len(st.sent) != 1 {
		t.Errorf("transport saw %d sends, want 1 (const entry should not re-read)", len(st.sent))
	}
}

func TestEntryRead_RONeverCaches(t *testing.T) {
	st := &stubTransport{resp: []protocol.Frame{
		{Request: protocol.ReqAppInfoCRCCalc, Result: protocol.ResultOk, Data: 1},
		{Request: protocol.ReqAppInfoCRCCalc, Result: protocol.ResultOk, Data: 2},
	}}
	e := New(RO, "App CRC", protocol.ReqAppInfoCRCCalc)

	first, _ := e.Read(st)
	second, _ := e.Read(st)
	if first == second {
		t.Fatalf("RO reads should hit the transport every time, got identical values by coincidence of this stub")
	}
	if len(st.sent) != 2 {
		t.Errorf("transport saw %d sends, want 2", len(st.sent))
	}
}

func TestEntryRead_RequestMismatchIsMsgCorruption(t *testing.T) {
	st := &stubTransport{resp: []protocol.Frame{
		{Request: protocol.ReqDevInfoPID, Result: protocol.ResultOk},
	}}
	e := New(Const, "Vendor ID", protocol.ReqDevInfoVID)

	_, err := e.Read(st)
	if _, ok := err.(*ferr.MsgCorruption); !ok {
		t.Fatalf("Read() error = %v (%T), want *ferr.MsgCorruption", err, err)
	}
}

func TestEntryRead_UnknownRequestIsNotSupported(t *testing.T) {
	st := &stubTransport{resp: []protocol.Frame{
		{Request: protocol.ReqAppInfoCRCStrd, Result: protocol.ResultErrUnknownReq},
	}}
	e := New(RO, "Stored CRC", protocol.ReqAppInfoCRCStrd)

	_, err := e.Read(st)
	if _, ok := err.(*ferr.NotSupported); !ok {
		t.Fatalf("Read() error = %v (%T), want *ferr.NotSupported", err, err)
	}
}

func TestEntryWrite_EchoMismatchIsMsgCorruption(t *testing.T) {
	st := &stubTransport{resp: []protocol.Frame{
		{Request: protocol.ReqFlashWriteAppCRC, Result: protocol.ResultOk, Data: 0xFF},
	}}
	e := New(RW, "scratch", protocol.ReqFlashWriteAppCRC)

	err := e.Write(st, 0x42)
	if _, ok := err.(*ferr.MsgCorruption); !ok {
		t.Fatalf("Write() error = %v (%T), want *ferr.MsgCorruption", err, err)
	}
}

func TestEntryWrite_NotWriteable(t *testing.T) {
	e := New(RO, "App CRC", protocol.ReqAppInfoCRCCalc)
	if err := e.Write(&stubTransport{}, 1); err == nil {
		t.Fatal("Write() on an RO entry should fail")
	}
}

func TestEntryExec_EchoesPacketID(t *testing.T) {
	st := &stubTransport{resp: []protocol.Frame{
		{Request: protocol.ReqPageBufferWriteWord, Result: protocol.ResultOk, PacketID: 3},
	}}
	e := New(Cmd, "Page Buffer Write Word", protocol.ReqPageBufferWriteWord)

	resp, err := e.Exec(st, 3, 0xDEADBEEF)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if resp.PacketID != 3 {
		t.Errorf("Exec() response packet_id = %d, want 3", resp.PacketID)
	}
}

func TestEntryExec_PacketIDMismatchIsMsgCorruption(t *testing.T) {
	st := &stubTransport{resp: []protocol.Frame{
		{Request: protocol.ReqPageBufferWriteWord, Result: protocol.ResultOk, PacketID: 9},
	}}
	e := New(Cmd, "Page Buffer Write Word", protocol.ReqPageBufferWriteWord)

	_, err := e.Exec(st, 3, 0)
	if _, ok := err.(*ferr.MsgCorruption); !ok {
		t.Fatalf("Exec() error = %v (%T), want *ferr.MsgCorruption", err, err)
	}
}

func TestEntryExec_ValueMismatchIsReturnedForCallerToInspect(t *testing.T) {
	st := &stubTransport{resp: []protocol.Frame{
		{Request: protocol.ReqPageBufferCalcCRC, Result: protocol.ResultErrValueMismatch},
	}}
	e := New(Cmd, "Page Buffer Calc CRC", protocol.ReqPageBufferCalcCRC)

	_, err := e.Exec(st, 0, 0)
	if err != nil {
		t.Fatalf("Exec() returns the raw response, not an error, for the caller to inspect: got %v", err)
	}
}
