package recording

import (
	"errors"
	"io"
)

// EncodeWAV returns the clip's WAV container bytes.
func (c *Clip) EncodeWAV() ([]byte, error) {
	var sb seekBuffer
	if err := c.WriteWAV(&sb); err != nil {
		return nil, err
	}
	return sb.buf, nil
}

// seekBuffer is an in-memory io.WriteSeeker; the wav encoder patches
// header sizes by seeking back after the samples are written.
type seekBuffer struct {
	buf []byte
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	end := s.pos + len(p)
	if end > len(s.buf) {
		if end > cap(s.buf) {
			grown := make([]byte, len(s.buf), 2*end)
			copy(grown, s.buf)
			s.buf = grown
		}
		s.buf = s.buf[:end]
	}
	copy(s.buf[s.pos:], p)
	s.pos = end
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(s.pos)
	case io.SeekEnd:
		base = int64(len(s.buf))
	default:
		return 0, errors.New("seek: invalid whence")
	}
	next := base + offset
	if next < 0 {
		return 0, errors.New("seek: negative position")
	}
	s.pos = int(next)
	return next, nil
}
