package digest

import (
	"encoding/binary"
	"encoding/hex"
)

// Session is one hashing run. Create with New, feed it
// with Update or Write, and finish with Final or Sum.
// A finished session panics on further use.
type Session struct {
	h    [8]uint32
	x    [BlockSize]byte
	nx   int
	len  uint64 // bits ingested so far
	done bool
}

// New returns a session primed with the initial hash
// state and an empty buffer.
func New() *Session {
	return &Session{h: initState}
}

// Update appends p to the message. Chunk boundaries do
// not affect the result.
func (s *Session) Update(p []byte) {
	s.mustBeOpen()

	s.len += uint64(len(p)) << 3

	if s.nx > 0 {
		n := copy(s.x[s.nx:], p)
		s.nx += n
		p = p[n:]

		if s.nx < BlockSize {
			return
		}

		transform(&s.h, s.x[:])
		s.nx = 0
	}

	if full := len(p) &^ (BlockSize - 1); full > 0 {
		transform(&s.h, p[:full])
		p = p[full:]
	}

	s.nx = copy(s.x[:], p)
}

// Write implements io.Writer. It never fails.
func (s *Session) Write(p []byte) (int, error) {
	s.Update(p)

	return len(p), nil
}

// Sum pads the message, compresses the final one or two
// blocks and returns the raw digest. The session is spent
// afterwards.
func (s *Session) Sum() [Size]byte {
	s.mustBeOpen()
	s.done = true

	var buf [2 * BlockSize]byte

	n := copy(buf[:], s.x[:s.nx])
	buf[n] = 0x80
	n++

	end := BlockSize
	if n > lenOffset {
		end = 2 * BlockSize
	}

	binary.BigEndian.PutUint64(buf[end-8:end], s.len)
	transform(&s.h, buf[:end])

	var out [Size]byte
	for i, v := range s.h {
		binary.BigEndian.PutUint32(out[4*i:], v)
	}

	return out
}

// Final is Sum rendered as 64 lowercase hex characters.
func (s *Session) Final() string {
	sum := s.Sum()

	return hex.EncodeToString(sum[:])
}

func (s *Session) mustBeOpen() {
	if s.done {
		panic("digest: session already finalized")
	}
}

// Sum256Hex hashes p in a fresh session.
func Sum256Hex(p []byte) string {
	s := New()
	s.Update(p)

	return s.Final()
}
