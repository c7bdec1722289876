package digest

// Exported aliases for testing unexported functions from
// the digest_test package.

// TransformForTest exposes transform.
var TransformForTest = transform

// InitStateForTest returns a copy of the initial state.
func InitStateForTest() [8]uint32 { return initState }

// RoundConstantsForTest returns a copy of k.
func RoundConstantsForTest() [64]uint32 { return k }

// RotrForTest exposes rotr.
var RotrForTest = rotr

// ChForTest exposes ch.
var ChForTest = ch

// MajForTest exposes maj.
var MajForTest = maj

// Ep0ForTest exposes ep0.
var Ep0ForTest = ep0

// Ep1ForTest exposes ep1.
var Ep1ForTest = ep1

// Sig0ForTest exposes sig0.
var Sig0ForTest = sig0

// Sig1ForTest exposes sig1.
var Sig1ForTest = sig1
