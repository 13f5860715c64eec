package serial

import (
	"bytes"
	"testing"
)

func TestEncodeReadDelimited_RoundTrip(t *testing.T) {
	payload := []byte{0x01, 0x00, 0x01, 0x00, 0xC0, 0xDB, 0x00, 0x00}
	encoded := encodeFrame(payload)

	decoded, remaining, ok := readDelimited(encoded)
	if !ok {
		t.Fatal("readDelimited() ok = false, want true")
	}
	if !bytes.Equal(decoded, payload) {
		t.Errorf("readDelimited() payload = %v, want %v", decoded, payload)
	}
	if len(remaining) != 0 {
		t.Errorf("readDelimited() remaining = %v, want empty", remaining)
	}
}

func TestReadDelimited_Incomplete(t *testing.T) {
	partial := []byte{frameEnd, 0x01, 0x02}
	_, remaining, ok := readDelimited(partial)
	if ok {
		t.Fatal("readDelimited() ok = true on incomplete frame, want false")
	}
	if !bytes.Equal(remaining, partial) {
		t.Errorf("readDelimited() remaining = %v, want %v unchanged", remaining, partial)
	}
}

func TestReadDelimited_LeavesTrailingBytesForNextCall(t *testing.T) {
	first := encodeFrame([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	second := encodeFrame([]byte{8, 7, 6, 5, 4, 3, 2, 1})
	stream := append(first, second...)

	payload1, rest, ok := readDelimited(stream)
	if !ok || !bytes.Equal(payload1, []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("first frame = %v, ok=%v", payload1, ok)
	}

	payload2, rest2, ok := readDelimited(rest)
	if !ok || !bytes.Equal(payload2, []byte{8, 7, 6, 5, 4, 3, 2, 1}) {
		t.Fatalf("second frame = %v, ok=%v", payload2, ok)
	}
	if len(rest2) != 0 {
		t.Errorf("rest2 = %v, want empty", rest2)
	}
}
