package camera

import "bytes"

var (
	jpegSOI = []byte{0xff, 0xd8}
	jpegEOI = []byte{0xff, 0xd9}
)

// mjpegSplitter reassembles complete JPEG frames from an image2pipe byte
// stream. Input chunks may split a frame at any byte offset.
type mjpegSplitter struct {
	buf []byte
}

// push appends chunk and returns every complete frame now available, oldest
// first. Bytes before a start-of-image marker are discarded.
func (s *mjpegSplitter) push(chunk []byte) [][]byte {
	s.buf = append(s.buf, chunk...)

	var frames [][]byte
	for {
		start := bytes.Index(s.buf, jpegSOI)
		if start < 0 {
			// Keep at most one trailing byte in case it is the first half of a marker.
			if len(s.buf) > 1 {
				s.buf = s.buf[len(s.buf)-1:]
			}
			return frames
		}
		if start > 0 {
			s.buf = s.buf[start:]
		}

		end := bytes.Index(s.buf[len(jpegSOI):], jpegEOI)
		if end < 0 {
			return frames
		}
		frameLen := len(jpegSOI) + end + len(jpegEOI)

		frame := make([]byte, frameLen)
		copy(frame, s.buf[:frameLen])
		frames = append(frames, frame)
		s.buf = s.buf[frameLen:]
	}
}
