package sheet

import (
	"io"
	"strings"
	"unicode/utf8"
)

// utf8Sanitizer replaces bytes that are not valid UTF-8 with '?' as the
// export streams through, one byte for one byte. A multi-byte rune split
// across reads is held back until the next read completes it.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	// Loop so a read that only completed a held rune prefix never reports
	// zero bytes with a nil error.
	for {
		off := copy(p, s.pending)
		s.pending = s.pending[:0]

		n, err := s.r.Read(p[off:])
		n += off
		if n == 0 {
			return 0, err
		}
		if w := s.sanitize(p[:n], err == io.EOF); w > 0 || err != nil {
			return w, err
		}
	}
}

// sanitize rewrites data in place and returns how many bytes are ready.
func (s *utf8Sanitizer) sanitize(data []byte, atEOF bool) int {
	if !atEOF {
		if tail := partialRuneSuffix(data); tail > 0 {
			s.pending = append(s.pending, data[len(data)-tail:]...)
			data = data[:len(data)-tail]
		}
	}
	if utf8.Valid(data) {
		return len(data)
	}

	w := 0
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			data[w] = '?'
			w++
			i++
			continue
		}
		copy(data[w:], data[i:i+size])
		w += size
		i += size
	}
	return w
}

// partialRuneSuffix returns the length of a rune start at the end of data
// that still lacks continuation bytes.
func partialRuneSuffix(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b&0xC0 == 0x80 {
			continue // continuation byte, keep looking for the start
		}
		if b < 0xC0 {
			return 0
		}
		if i < runeLen(b) {
			return i
		}
		return 0
	}
	return 0
}

// runeLen is the encoded length announced by a UTF-8 leading byte.
func runeLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}

// cleanCell trims a cell and unwraps the ="..." guard some exports put around
// values like zip codes to keep leading zeros.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return s
}
