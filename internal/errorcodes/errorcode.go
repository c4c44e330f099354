// Package errorcodes defines boundary protocol errors using a structured type.
// Code holds a two-character code and a human-readable description.
package errorcodes

// Predefined boundary error kinds.
var (
	ErrEncode          = Code{"E1", "value could not be encoded"}
	ErrDecode          = Code{"E2", "byte sequence is inconsistent with the expected value shape"}
	ErrReservation     = Code{"R1", "guest buffer reservation failed"}
	ErrMemoryWrite     = Code{"M1", "write exceeds guest linear memory"}
	ErrMemoryRead      = Code{"M2", "read exceeds guest linear memory or reserved buffer"}
	ErrPackingOverflow = Code{"P1", "pointer or length exceeds the 32-bit address domain"}
	ErrGuestTrap       = Code{"T1", "guest trapped"}
	ErrExport          = Code{"X1", "guest export is missing or mistyped"}
)

// Code represents a protocol error kind with its code and description.
type Code struct {
	Code        string // two-character error code
	Description string // human-readable description
}

// Error implements the Go error interface: "<Code>: <Description>".
func (e Code) Error() string {
	return e.Code + ": " + e.Description
}

// CodeOnly returns only the error code (e.g., "M2").
func (e Code) CodeOnly() string {
	return e.Code
}

// Fatal reports whether an error of this kind leaves the guest instance untrusted.
func (e Code) Fatal() bool {
	return e == ErrReservation || e == ErrGuestTrap
}
