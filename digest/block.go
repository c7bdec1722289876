package digest

import "encoding/binary"

// transform folds every 64-byte block of p into h, in
// order. len(p) must be a multiple of BlockSize.
func transform(h *[8]uint32, p []byte) {
	var w [64]uint32

	for len(p) >= BlockSize {
		for t := 0; t < 16; t++ {
			w[t] = binary.BigEndian.Uint32(p[4*t:])
		}

		for t := 16; t < 64; t++ {
			w[t] = sig1(w[t-2]) + w[t-7] + sig0(w[t-15]) + w[t-16]
		}

		a, b, c, d := h[0], h[1], h[2], h[3]
		e, f, g, hh := h[4], h[5], h[6], h[7]

		for t := 0; t < 64; t++ {
			t1 := hh + ep1(e) + ch(e, f, g) + k[t] + w[t]
			t2 := ep0(a) + maj(a, b, c)

			hh = g
			g = f
			f = e
			e = d + t1
			d = c
			c = b
			b = a
			a = t1 + t2
		}

		h[0] += a
		h[1] += b
		h[2] += c
		h[3] += d
		h[4] += e
		h[5] += f
		h[6] += g
		h[7] += hh

		p = p[BlockSize:]
	}
}
