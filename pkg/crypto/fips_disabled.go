//go:build !fips
// +build !fips

package crypto

// FIPSMode reports whether the binary was built in FIPS mode.
//
// When false, a hybrid operation whose post-quantum component fails may
// still return a classical-only result (see constants.SecurityLevel), trading
// post-quantum assurance for availability.
func FIPSMode() bool { return false }
