package digest

import "math/bits"

func rotr(x uint32, n int) uint32 { return bits.RotateLeft32(x, -n) }

func shr(x uint32, n int) uint32 { return x >> n }

// ch picks bits from y where x is set, else from z.
func ch(x, y, z uint32) uint32 { return (x & y) ^ (^x & z) }

// maj is the bitwise majority of x, y and z.
func maj(x, y, z uint32) uint32 { return (x & y) ^ (x & z) ^ (y & z) }

func ep0(x uint32) uint32 { return rotr(x, 2) ^ rotr(x, 13) ^ rotr(x, 22) }

func ep1(x uint32) uint32 { return rotr(x, 6) ^ rotr(x, 11) ^ rotr(x, 25) }

func sig0(x uint32) uint32 { return rotr(x, 7) ^ rotr(x, 18) ^ shr(x, 3) }

func sig1(x uint32) uint32 { return rotr(x, 17) ^ rotr(x, 19) ^ shr(x, 10) }
