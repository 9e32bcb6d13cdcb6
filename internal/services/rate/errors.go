package rate

import (
	"errors"
	"fmt"
)

type TooFastError struct {
	RetryAfterSec int64
}

func (e *TooFastError) Error() string {
	return fmt.Sprintf("too fast: retry after %ds", e.RetryAfterSec)
}

func (e *TooFastError) RetryAfter() int64 {
	if e == nil {
		return 0
	}
	return e.RetryAfterSec
}

func IsTooFast(err error) (*TooFastError, bool) {
	var tooFast *TooFastError
	if errors.As(err, &tooFast) {
		return tooFast, true
	}
	return nil, false
}
