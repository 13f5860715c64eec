// Package protocol implements the Frankly bootloader wire protocol: the
// fixed 8-byte frame, the request/result enumerations, and the CRC
// algorithm used to verify flashed pages.
package protocol

import (
	"encoding/binary"
	"fmt"
)

// FrameSize is the fixed length in bytes of every request and response
// frame on the wire.
const FrameSize = 8

// Frame is the 8-byte little-endian request/response unit of the wire
// protocol (spec §3, §4.1).
type Frame struct {
	Request  Request
	Result   Result
	PacketID uint8
	Data     uint32
}

// NewRequestFrame builds an outbound frame. Result is always set to
// ResultPending, per the frame invariant that every request frame carries
// the request-pending sentinel.
func NewRequestFrame(req Request, packetID uint8, data uint32) Frame {
	return Frame{
		Request:  req,
		Result:   ResultPending,
		PacketID: packetID,
		Data:     data,
	}
}

// Encode serializes the frame to its 8-byte wire representation.
func (f Frame) Encode() [FrameSize]byte {
	var buf [FrameSize]byte
	binary.LittleEndian.PutUint16(buf[0:2], uint16(f.Request))
	buf[2] = byte(f.Result)
	buf[3] = f.PacketID
	binary.LittleEndian.PutUint32(buf[4:8], f.Data)
	return buf
}

// Decode parses an 8-byte wire frame. The only validation performed here is
// the length check; semantic validation (request/packet_id echo, result
// code legality) belongs to the entry model, not the codec.
func Decode(buf []byte) (Frame, error) {
	if len(buf) != FrameSize {
		return Frame{}, fmt.Errorf("protocol: frame must be %d bytes, got %d", FrameSize, len(buf))
	}
	return Frame{
		Request:  Request(binary.LittleEndian.Uint16(buf[0:2])),
		Result:   Result(buf[2]),
		PacketID: buf[3],
		Data:     binary.LittleEndian.Uint32(buf[4:8]),
	}, nil
}
