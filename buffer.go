// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"io"
)

// Buffer is a bytes.Buffer-like FIFO backed by an arena. It implements
// io.Writer, io.Reader and io.ReaderFrom; all storage growth goes through
// the arena, so a Buffer's memory is reclaimed with the arena that backs it.
// The Buffer must not outlive its arena's next Reset or Free.
type Buffer struct {
	arena   Arena
	buf     []byte // buf[:unread] holds the buffered data
	unread  int
	readBuf []byte // scratch space for ReadFrom
}

// NewBuffer creates a Buffer backed by the given arena.
// If arena is nil, storage falls back to regular Go allocation.
func NewBuffer(arena Arena) *Buffer {
	return &Buffer{arena: arena}
}

// Write implements io.Writer. It appends p to the buffer.
func (b *Buffer) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	b.buf = SliceAppend(b.arena, b.buf[:b.unread], p...)
	b.unread = len(b.buf)
	return len(p), nil
}

// WriteByte appends a single byte to the buffer.
func (b *Buffer) WriteByte(c byte) error {
	b.buf = SliceAppend(b.arena, b.buf[:b.unread], c)
	b.unread = len(b.buf)
	return nil
}

// WriteString appends s to the buffer.
func (b *Buffer) WriteString(s string) (n int, err error) {
	if len(s) == 0 {
		return 0, nil
	}
	b.buf = SliceAppend(b.arena, b.buf[:b.unread], []byte(s)...)
	b.unread = len(b.buf)
	return len(s), nil
}

// WriteTo writes the buffered data to w until the buffer is drained or an
// error occurs. As with bytes.Buffer, a write that consumes fewer bytes
// than buffered without returning an error reports io.ErrShortWrite.
func (b *Buffer) WriteTo(w io.Writer) (n int64, err error) {
	if b.unread == 0 {
		return 0, nil
	}
	m, err := w.Write(b.buf[:b.unread])
	if m > b.unread {
		panic("arena: invalid Write count")
	}
	if m > 0 {
		n = int64(m)
		copy(b.buf, b.buf[m:b.unread])
		b.unread -= m
	}
	if err == nil && b.unread > 0 {
		err = io.ErrShortWrite
	}
	return n, err
}

// Read reads up to len(p) bytes from the buffer into p.
func (b *Buffer) Read(p []byte) (n int, err error) {
	if b.unread == 0 {
		return 0, io.EOF
	}
	n = copy(p, b.buf[:b.unread])
	if n < len(p) {
		err = io.EOF
	}
	copy(b.buf, b.buf[n:b.unread])
	b.unread -= n
	return n, err
}

// ReadByte reads and returns the next byte from the buffer.
func (b *Buffer) ReadByte() (byte, error) {
	if b.unread == 0 {
		return 0, io.EOF
	}
	c := b.buf[0]
	copy(b.buf, b.buf[1:b.unread])
	b.unread--
	return c, nil
}

// Bytes returns the buffered data. The slice is valid for use only until
// the next buffer modification.
func (b *Buffer) Bytes() []byte {
	if b.unread == 0 {
		return []byte{}
	}
	return b.buf[:b.unread]
}

// String returns the buffered data as a string.
func (b *Buffer) String() string {
	return string(b.buf[:b.unread])
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	return b.unread
}

// Cap returns the capacity of the buffer's underlying byte slice.
func (b *Buffer) Cap() int {
	return cap(b.buf)
}

// Reset discards the buffered data but keeps the underlying storage.
func (b *Buffer) Reset() {
	b.unread = 0
	if b.buf != nil {
		b.buf = b.buf[:0]
	}
}

// Truncate discards all but the first n buffered bytes.
// It panics if n is negative or greater than the buffer's length.
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > b.unread {
		panic("arena: truncation out of range")
	}
	b.unread = n
}

// Next returns a copy of the next n buffered bytes, advancing the buffer as
// if the bytes had been returned by Read. Fewer than n bytes are returned
// when the buffer holds fewer.
func (b *Buffer) Next(n int) []byte {
	if n <= 0 {
		return []byte{}
	}
	if n > b.unread {
		n = b.unread
	}
	if n == 0 {
		return []byte{}
	}
	result := make([]byte, n)
	copy(result, b.buf[:n])
	copy(b.buf, b.buf[n:b.unread])
	b.unread -= n
	return result
}

// ReadFrom implements io.ReaderFrom. It reads from r until EOF or error,
// appending everything to the buffer. The scratch read buffer is allocated
// from the arena once and reused.
func (b *Buffer) ReadFrom(r io.Reader) (n int64, err error) {
	if b.readBuf == nil {
		const readBufferSize = 4 * 1024
		b.readBuf = AllocateSlice[byte](b.arena, readBufferSize, readBufferSize)
	}
	for {
		nr, er := r.Read(b.readBuf)
		if nr > 0 {
			if _, ew := b.Write(b.readBuf[:nr]); ew != nil {
				return n, ew
			}
			n += int64(nr)
		}
		if er != nil {
			if er == io.EOF {
				return n, nil
			}
			return n, er
		}
	}
}
