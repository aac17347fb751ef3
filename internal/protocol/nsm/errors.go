package nsm

import (
	"strconv"

	"github.com/nsm-fleet/nsmd/internal/nsmerr"
)

// ErrNull, ErrLength, ErrData and ErrCommandFail construct the four codec
// failure modes spec.md §4.1 defines, each tagged with the operation name
// that raised it.
func ErrNull(op string) error { return nsmerr.New(op, nsmerr.LayerCodec, nsmerr.CodeNull) }

func ErrLength(op string) error { return nsmerr.New(op, nsmerr.LayerCodec, nsmerr.CodeLength) }

func ErrData(op string) error { return nsmerr.New(op, nsmerr.LayerCodec, nsmerr.CodeData) }

func ErrCommandFail(op string, reason ReasonCode) error {
	e := nsmerr.New(op, nsmerr.LayerCodec, nsmerr.CodeCommandFail)
	e.Inner = reasonCodeError(reason)
	return e
}

type reasonCodeError ReasonCode

func (r reasonCodeError) Error() string {
	return "reason code " + strconv.Itoa(int(r))
}
