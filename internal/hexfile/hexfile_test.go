package hexfile

import (
	"strings"
	"testing"
)

const sampleHex = ":020000040800F2\n" +
	":102000000000012009230008D1220008D522000881\n" +
	":10201000D9220008DD220008E122000800000000AB\n" +
	":00000001FF\n"

func TestParse_DataRecordsWithExtendedAddress(t *testing.T) {
	data, err := Parse(strings.NewReader(sampleHex))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(data) != 32 {
		t.Fatalf("Parse() yielded %d bytes, want 32", len(data))
	}
	if data[0x08002000] != 0x00 || data[0x08002002] != 0x01 || data[0x08002003] != 0x20 {
		t.Errorf("Parse() first bytes = %#02x %#02x %#02x, want 00 01 20",
			data[0x08002000], data[0x08002002], data[0x08002003])
	}
	if _, ok := data[0x0800201F]; !ok {
		t.Error("Parse() missing the last byte of the second data record")
	}
}

func TestParse_DOSLineEndings(t *testing.T) {
	crlf := strings.ReplaceAll(sampleHex, "\n", "\r\n")
	data, err := Parse(strings.NewReader(crlf))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(data) != 32 {
		t.Fatalf("Parse() yielded %d bytes, want 32", len(data))
	}
}

func TestParse_BadChecksumReportsLineNumber(t *testing.T) {
	bad := ":102000000000012009230008D1220008D522000880\n" + // last byte flipped from 81 to 80
		":00000001FF\n"
	_, err := Parse(strings.NewReader(bad))
	if err == nil {
		t.Fatal("Parse() with a bad checksum should fail")
	}
	if !strings.Contains(err.Error(), "line 1") {
		t.Errorf("Parse() error %q does not name the offending line", err.Error())
	}
}

func TestParse_DuplicateAddressRejected(t *testing.T) {
	dup := ":01000000AA55\n" + // address 0x0000 = 0xAA
		":01000000BB44\n" +    // address 0x0000 again = 0xBB
		":00000001FF\n"
	_, err := Parse(strings.NewReader(dup))
	if err == nil {
		t.Fatal("Parse() with overlapping addresses should fail")
	}
}

func TestParse_NoDataIsAnError(t *testing.T) {
	_, err := Parse(strings.NewReader(":00000001FF\n"))
	if err == nil {
		t.Fatal("Parse() with only an EOF record should fail")
	}
}

func TestParse_StopsAtEOFRecord(t *testing.T) {
	data, err := Parse(strings.NewReader(sampleHex + ":0200000009080FFE\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(data) != 32 {
		t.Fatalf("Parse() should ignore records after EOF, got %d bytes", len(data))
	}
}
