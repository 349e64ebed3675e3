//go:build fips
// +build fips

package crypto

// FIPSMode reports whether the binary was built in FIPS mode.
//
// When true, both halves of every hybrid operation are mandatory: a
// post-quantum component failure (ML-KEM/ML-DSA) cannot be downgraded to a
// classical-only result, since FIPS 203/204 compliance requires the
// post-quantum primitive to have actually run.
func FIPSMode() bool { return true }
