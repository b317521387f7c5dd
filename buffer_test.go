// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferWriteAndRead(t *testing.T) {
	a := NewChainedArena()
	defer a.Free()
	buf := NewBuffer(a)

	n, err := buf.Write([]byte("hello world"))
	require.NoError(t, err)
	require.Equal(t, 11, n)
	require.Equal(t, 11, buf.Len())

	p := make([]byte, 5)
	n, err = buf.Read(p)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(p))
	require.Equal(t, 6, buf.Len())

	// Draining past the end reports EOF alongside the remaining bytes.
	p = make([]byte, 10)
	n, err = buf.Read(p)
	require.Equal(t, io.EOF, err)
	require.Equal(t, 6, n)
	require.Equal(t, " world", string(p[:n]))

	_, err = buf.Read(p)
	require.Equal(t, io.EOF, err)
}

func TestBufferWriteString(t *testing.T) {
	a := NewChainedArena()
	defer a.Free()
	buf := NewBuffer(a)

	n, err := buf.WriteString("hello, ")
	require.NoError(t, err)
	require.Equal(t, 7, n)

	_, err = buf.WriteString("arena")
	require.NoError(t, err)
	require.Equal(t, "hello, arena", buf.String())
	require.Equal(t, []byte("hello, arena"), buf.Bytes())
}

func TestBufferWriteByteReadByte(t *testing.T) {
	a := NewChainedArena()
	defer a.Free()
	buf := NewBuffer(a)

	require.NoError(t, buf.WriteByte('x'))
	require.NoError(t, buf.WriteByte('y'))

	c, err := buf.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('x'), c)

	c, err = buf.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('y'), c)

	_, err = buf.ReadByte()
	require.Equal(t, io.EOF, err)
}

func TestBufferInterleavedReadWrite(t *testing.T) {
	a := NewChainedArena()
	defer a.Free()
	buf := NewBuffer(a)

	_, err := buf.WriteString("hello")
	require.NoError(t, err)

	p := make([]byte, 2)
	_, err = buf.Read(p)
	require.NoError(t, err)
	require.Equal(t, "he", string(p))

	// Writes after a partial read append to the unread remainder only.
	_, err = buf.WriteString("!")
	require.NoError(t, err)
	require.Equal(t, "llo!", buf.String())
}

func TestBufferWriteTo(t *testing.T) {
	a := NewChainedArena()
	defer a.Free()
	buf := NewBuffer(a)

	_, err := buf.WriteString("drain me")
	require.NoError(t, err)

	var sink bytes.Buffer
	n, err := buf.WriteTo(&sink)
	require.NoError(t, err)
	require.Equal(t, int64(8), n)
	require.Equal(t, "drain me", sink.String())
	require.Equal(t, 0, buf.Len())

	n, err = buf.WriteTo(&sink)
	require.NoError(t, err)
	require.Zero(t, n)
}

// shortWriter accepts at most half of each write and reports no error.
type shortWriter struct {
	got []byte
}

func (w *shortWriter) Write(p []byte) (int, error) {
	n := (len(p) + 1) / 2
	w.got = append(w.got, p[:n]...)
	return n, nil
}

func TestBufferWriteToShortWrite(t *testing.T) {
	a := NewChainedArena()
	defer a.Free()
	buf := NewBuffer(a)

	_, err := buf.WriteString("12345678")
	require.NoError(t, err)

	sink := &shortWriter{}
	n, err := buf.WriteTo(sink)
	require.ErrorIs(t, err, io.ErrShortWrite)
	require.Equal(t, int64(4), n)
	require.Equal(t, "1234", string(sink.got))

	// The unwritten tail stays buffered.
	require.Equal(t, "5678", buf.String())
}

func TestBufferReadFrom(t *testing.T) {
	a := NewChainedArena()
	defer a.Free()
	buf := NewBuffer(a)

	payload := strings.Repeat("chained arena ", 1000)
	n, err := buf.ReadFrom(strings.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, int64(len(payload)), n)
	require.Equal(t, payload, buf.String())
}

func TestBufferTruncate(t *testing.T) {
	a := NewChainedArena()
	defer a.Free()
	buf := NewBuffer(a)

	_, err := buf.WriteString("truncate me")
	require.NoError(t, err)

	buf.Truncate(8)
	require.Equal(t, "truncate", buf.String())

	require.Panics(t, func() { buf.Truncate(-1) })
	require.Panics(t, func() { buf.Truncate(9) })
}

func TestBufferNext(t *testing.T) {
	a := NewChainedArena()
	defer a.Free()
	buf := NewBuffer(a)

	_, err := buf.WriteString("abcdef")
	require.NoError(t, err)

	require.Equal(t, []byte("abc"), buf.Next(3))
	require.Equal(t, []byte("def"), buf.Next(10)) // clamped to what is left
	require.Empty(t, buf.Next(1))
	require.Empty(t, buf.Next(0))
}

func TestBufferReset(t *testing.T) {
	a := NewChainedArena()
	defer a.Free()
	buf := NewBuffer(a)

	_, err := buf.WriteString("some data")
	require.NoError(t, err)
	capBefore := buf.Cap()

	buf.Reset()
	require.Equal(t, 0, buf.Len())
	require.Equal(t, capBefore, buf.Cap())
	require.Empty(t, buf.Bytes())

	_, err = buf.WriteString("reused")
	require.NoError(t, err)
	require.Equal(t, "reused", buf.String())
}

func TestBufferNilArenaFallback(t *testing.T) {
	buf := NewBuffer(nil)

	_, err := buf.WriteString("no arena")
	require.NoError(t, err)
	require.Equal(t, "no arena", buf.String())
}
