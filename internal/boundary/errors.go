package boundary

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andrei-cloud/go_binio/internal/errorcodes"
)

var (
	errMissingExport = errors.New("export not found")
	errNoMemory      = errors.New("module exports no memory")
	errNotActive     = errors.New("handle is not the active reservation")
)

// CallError is the single error type surfaced by the call protocol.
// errors.Is matches Kind; errors.As reaches the underlying cause.
type CallError struct {
	Kind   errorcodes.Code
	Step   Step
	Export string
	Ptr    uint32
	Len    uint32
	Size   int64
	Extent uint64
	Err    error
}

func (e *CallError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s at %s", e.Kind.Error(), e.Step)
	if e.Export != "" {
		fmt.Fprintf(&b, " (export %q)", e.Export)
	}
	if e.Ptr != 0 || e.Len != 0 {
		fmt.Fprintf(&b, " ptr=%d len=%d", e.Ptr, e.Len)
	}
	if e.Extent != 0 {
		fmt.Fprintf(&b, " extent=%d", e.Extent)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *CallError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
