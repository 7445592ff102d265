package rw

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var ErrValueRange = errors.New("value out of range")

// ReaderWriter is a little-endian binary buffer. The first failure is kept
// and every later call becomes a no-op; check Err once at the end.
type ReaderWriter struct {
	order   binary.ByteOrder
	dataBuf []byte
	rw      bytes.Buffer
	err     error
}

func NewBinWriter() *ReaderWriter {
	return &ReaderWriter{order: binary.LittleEndian, dataBuf: make([]byte, 8)}
}

func NewBinReader(data []byte) *ReaderWriter {
	d := &ReaderWriter{order: binary.LittleEndian, dataBuf: make([]byte, 8)}
	d.rw.Write(data)
	return d
}

func (w *ReaderWriter) Err() error {
	return w.err
}

func (w *ReaderWriter) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *ReaderWriter) read(n int) []byte {
	if w.err != nil {
		return nil
	}
	if _, err := io.ReadFull(&w.rw, w.dataBuf[:n]); err != nil {
		w.fail(fmt.Errorf("read %d bytes: %w", n, io.ErrUnexpectedEOF))
		return nil
	}
	return w.dataBuf[:n]
}

func (w *ReaderWriter) ReadUInt8() int {
	b := w.read(1)
	if b == nil {
		return 0
	}
	return int(b[0])
}

func (w *ReaderWriter) ReadUInt8s(value []int) {
	for i := range value {
		value[i] = w.ReadUInt8()
	}
}

func (w *ReaderWriter) ReadUInt16() int {
	b := w.read(2)
	if b == nil {
		return 0
	}
	return int(w.order.Uint16(b))
}

func (w *ReaderWriter) ReadUInt16s(value []int) {
	for i := range value {
		value[i] = w.ReadUInt16()
	}
}

func (w *ReaderWriter) ReadInt32() int {
	b := w.read(4)
	if b == nil {
		return 0
	}
	return int(int32(w.order.Uint32(b)))
}

func (w *ReaderWriter) ReadInt32s(value []int) {
	for i := range value {
		value[i] = w.ReadInt32()
	}
}

func (w *ReaderWriter) ReadFloat32() float64 {
	b := w.read(4)
	if b == nil {
		return 0
	}
	return float64(math.Float32frombits(w.order.Uint32(b)))
}

func (w *ReaderWriter) ReadFloat32s(value []float64) {
	for i := range value {
		value[i] = w.ReadFloat32()
	}
}

func (w *ReaderWriter) write(b []byte) {
	if w.err != nil {
		return
	}
	w.rw.Write(b)
}

func (w *ReaderWriter) WriteUInt8(v int) {
	if v < 0 || v > math.MaxUint8 {
		w.fail(fmt.Errorf("uint8 %d: %w", v, ErrValueRange))
		return
	}
	w.dataBuf[0] = byte(v)
	w.write(w.dataBuf[:1])
}

func (w *ReaderWriter) WriteUInt8s(value []int) {
	for _, v := range value {
		w.WriteUInt8(v)
	}
}

func (w *ReaderWriter) WriteUInt16(v int) {
	if v < 0 || v > math.MaxUint16 {
		w.fail(fmt.Errorf("uint16 %d: %w", v, ErrValueRange))
		return
	}
	w.order.PutUint16(w.dataBuf, uint16(v))
	w.write(w.dataBuf[:2])
}

func (w *ReaderWriter) WriteUInt16s(value []int) {
	for _, v := range value {
		w.WriteUInt16(v)
	}
}

func (w *ReaderWriter) WriteInt32(v int) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		w.fail(fmt.Errorf("int32 %d: %w", v, ErrValueRange))
		return
	}
	w.order.PutUint32(w.dataBuf, uint32(int32(v)))
	w.write(w.dataBuf[:4])
}

func (w *ReaderWriter) WriteInt32s(value []int) {
	for _, v := range value {
		w.WriteInt32(v)
	}
}

func (w *ReaderWriter) WriteFloat32(v float64) {
	w.order.PutUint32(w.dataBuf, math.Float32bits(float32(v)))
	w.write(w.dataBuf[:4])
}

func (w *ReaderWriter) WriteFloat32s(value []float64) {
	for _, v := range value {
		w.WriteFloat32(v)
	}
}

func (w *ReaderWriter) Skip(size int) {
	w.rw.Next(size)
}

func (w *ReaderWriter) GetWriteBytes() (res []byte) {
	res = w.rw.Bytes()
	return res
}

func (w *ReaderWriter) PadZero(n int) {
	for i := 0; i < n; i++ {
		w.write([]byte{0})
	}
}

func (w *ReaderWriter) ChangeOrder(order binary.ByteOrder) {
	w.order = order
}

func (w *ReaderWriter) Size() int {
	return w.rw.Len()
}
