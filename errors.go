package pulseforge

import (
	"github.com/rfsynth/pulseforge/internal/crosstalk"
	"github.com/rfsynth/pulseforge/internal/quantity"
	"github.com/rfsynth/pulseforge/internal/schedule"
)

// These sentinels are defined once in the package that raises them and
// re-exported here so callers never need to import an internal package just
// to compare errors.Is against a failure from Compile or Sampler.Sample.
var (
	ErrInvalidQuantity    = quantity.ErrInvalidQuantity
	ErrInvalidCommon      = schedule.ErrInvalidCommon
	ErrInvalidAbsoluteTime = schedule.ErrInvalidAbsoluteTime
	ErrOversizeDisallowed = schedule.ErrOversizeDisallowed
	ErrVariantMismatch    = schedule.ErrVariantMismatch
	ErrCrosstalkShape     = crosstalk.ErrCrosstalkShape
)
