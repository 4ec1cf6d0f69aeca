package camera

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func jpegFrame(payload ...byte) []byte {
	frame := []byte{0xff, 0xd8}
	frame = append(frame, payload...)
	return append(frame, 0xff, 0xd9)
}

func TestSplitterSingleFrameOneChunk(t *testing.T) {
	s := &mjpegSplitter{}
	frame := jpegFrame(0x01, 0x02, 0x03)

	frames := s.push(frame)
	require.Len(t, frames, 1)
	require.Equal(t, frame, frames[0])
}

func TestSplitterFrameAcrossChunkBoundaries(t *testing.T) {
	s := &mjpegSplitter{}
	frame := jpegFrame(0x10, 0x20, 0x30, 0x40)

	require.Empty(t, s.push(frame[:3]))
	require.Empty(t, s.push(frame[3:5]))

	frames := s.push(frame[5:])
	require.Len(t, frames, 1)
	require.Equal(t, frame, frames[0])
}

func TestSplitterMarkerSplitAcrossChunks(t *testing.T) {
	s := &mjpegSplitter{}
	frame := jpegFrame(0xAA)

	// Split in the middle of the EOI marker.
	require.Empty(t, s.push(frame[:len(frame)-1]))
	frames := s.push(frame[len(frame)-1:])
	require.Len(t, frames, 1)
	require.Equal(t, frame, frames[0])
}

func TestSplitterMultipleFramesReturnsAllInOrder(t *testing.T) {
	s := &mjpegSplitter{}
	first := jpegFrame(0x01)
	second := jpegFrame(0x02, 0x03)

	var stream []byte
	stream = append(stream, first...)
	stream = append(stream, second...)

	frames := s.push(stream)
	require.Len(t, frames, 2)
	require.Equal(t, first, frames[0])
	require.Equal(t, second, frames[1])
}

func TestSplitterDiscardsLeadingGarbage(t *testing.T) {
	s := &mjpegSplitter{}
	frame := jpegFrame(0x55)

	stream := append([]byte{0x00, 0x11, 0x22}, frame...)
	frames := s.push(stream)
	require.Len(t, frames, 1)
	require.Equal(t, frame, frames[0])
}

func TestSplitterKeepsPartialTrailingFrame(t *testing.T) {
	s := &mjpegSplitter{}
	first := jpegFrame(0x01)
	second := jpegFrame(0x02)

	stream := append(append([]byte{}, first...), second[:3]...)
	frames := s.push(stream)
	require.Len(t, frames, 1)

	frames = s.push(second[3:])
	require.Len(t, frames, 1)
	require.Equal(t, second, frames[0])
}
