package proto

import (
	"encoding/binary"
	"math"
)

// MessageIn decodes one received frame. The first two bytes are the message
// id; typed reads consume the rest in order. Short reads return zero values
// and latch the error flag, so handlers validate once at the end.
type MessageIn struct {
	data []byte
	off  int
	bad  bool
}

func NewMessageIn(data []byte) *MessageIn {
	return &MessageIn{data: data, off: 2}
}

// ID returns the message id, or MsgInvalid for a truncated frame.
func (m *MessageIn) ID() uint16 {
	if len(m.data) < 2 {
		return MsgInvalid
	}
	return binary.LittleEndian.Uint16(m.data)
}

// Bad reports whether any read ran past the end of the frame.
func (m *MessageIn) Bad() bool { return m.bad }

func (m *MessageIn) Remaining() int { return len(m.data) - m.off }

func (m *MessageIn) ReadInt8() int8 { return int8(m.ReadUint8()) }

func (m *MessageIn) ReadUint8() uint8 {
	if m.off+1 > len(m.data) {
		m.bad = true
		return 0
	}
	v := m.data[m.off]
	m.off++
	return v
}

func (m *MessageIn) ReadInt16() int16 {
	if m.off+2 > len(m.data) {
		m.bad = true
		return 0
	}
	v := binary.LittleEndian.Uint16(m.data[m.off:])
	m.off += 2
	return int16(v)
}

func (m *MessageIn) ReadInt32() int32 {
	if m.off+4 > len(m.data) {
		m.bad = true
		return 0
	}
	v := binary.LittleEndian.Uint32(m.data[m.off:])
	m.off += 4
	return int32(v)
}

func (m *MessageIn) ReadInt64() int64 {
	if m.off+8 > len(m.data) {
		m.bad = true
		return 0
	}
	v := binary.LittleEndian.Uint64(m.data[m.off:])
	m.off += 8
	return int64(v)
}

func (m *MessageIn) ReadFloat64() float64 {
	return math.Float64frombits(uint64(m.ReadInt64()))
}

// ReadString reads a u16 length prefix and that many UTF-8 bytes.
func (m *MessageIn) ReadString() string {
	n := int(uint16(m.ReadInt16()))
	if m.bad || m.off+n > len(m.data) {
		m.bad = true
		return ""
	}
	s := string(m.data[m.off : m.off+n])
	m.off += n
	return s
}

// ReadBytes reads exactly n raw bytes.
func (m *MessageIn) ReadBytes(n int) []byte {
	if m.off+n > len(m.data) {
		m.bad = true
		return nil
	}
	b := make([]byte, n)
	copy(b, m.data[m.off:m.off+n])
	m.off += n
	return b
}
