package media

import (
	"errors"
	"fmt"
	"os"
)

// OpError describes a failed media operation. Partial lists output files
// that may have been left behind and must not be trusted.
type OpError struct {
	Op      string
	Src     string
	Dst     string
	Partial []string
	Err     error
}

func (e *OpError) Error() string {
	if e.Dst != "" {
		return fmt.Sprintf("%s %s -> %s: %v", e.Op, e.Src, e.Dst, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Src, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// RemovePartial deletes the partial outputs listed in err, if it is an
// *OpError anywhere in its chain. It returns the first removal failure other than not-exist.
func RemovePartial(err error) error {
	var opErr *OpError
	if !errors.As(err, &opErr) {
		return nil
	}
	var first error
	for _, p := range opErr.Partial {
		if rmErr := os.Remove(p); rmErr != nil && !os.IsNotExist(rmErr) && first == nil {
			first = rmErr
		}
	}
	return first
}
