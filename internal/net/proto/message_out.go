package proto

import (
	"encoding/binary"
	"math"
)

// MessageOut builds one outgoing frame: u16 message id then typed fields,
// all little-endian. The transport adds the length prefix.
type MessageOut struct {
	buf []byte
}

func NewMessageOut(id uint16) *MessageOut {
	m := &MessageOut{buf: make([]byte, 0, 64)}
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], id)
	m.buf = append(m.buf, b[:]...)
	return m
}

func (m *MessageOut) WriteInt8(v int8)   { m.buf = append(m.buf, byte(v)) }
func (m *MessageOut) WriteUint8(v uint8) { m.buf = append(m.buf, v) }

func (m *MessageOut) WriteInt16(v int16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(v))
	m.buf = append(m.buf, b[:]...)
}

func (m *MessageOut) WriteInt32(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	m.buf = append(m.buf, b[:]...)
}

func (m *MessageOut) WriteInt64(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	m.buf = append(m.buf, b[:]...)
}

func (m *MessageOut) WriteFloat64(v float64) {
	m.WriteInt64(int64(math.Float64bits(v)))
}

// WriteString writes a u16 length prefix and the UTF-8 bytes. Strings
// longer than 65535 bytes are truncated at the last full rune boundary
// below the cap.
func (m *MessageOut) WriteString(s string) {
	if len(s) > math.MaxUint16 {
		cut := math.MaxUint16
		for cut > 0 && s[cut]&0xC0 == 0x80 {
			cut--
		}
		s = s[:cut]
	}
	m.WriteInt16(int16(uint16(len(s))))
	m.buf = append(m.buf, s...)
}

// WriteBytes writes raw bytes with no length prefix.
func (m *MessageOut) WriteBytes(b []byte) {
	m.buf = append(m.buf, b...)
}

// Bytes returns the finished frame payload.
func (m *MessageOut) Bytes() []byte { return m.buf }

func (m *MessageOut) Len() int { return len(m.buf) }
