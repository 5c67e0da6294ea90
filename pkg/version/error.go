package version

import (
	"fmt"
)

type ErrInvalidVersion struct {
	Input string
	Err   error
}

func (e ErrInvalidVersion) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid version '%s': %v", e.Input, e.Err)
	}
	return fmt.Sprintf("invalid version '%s'", e.Input)
}

func (e ErrInvalidVersion) Unwrap() error {
	return e.Err
}
