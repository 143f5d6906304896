package pipeline

import (
	"errors"

	"bdo-market-etl/internal/analysis"
	"bdo-market-etl/internal/market"
	"bdo-market-etl/internal/storage"
)

// Classify maps any error raised inside a pipeline run onto its taxonomy
// label for logging and metrics. The mapping is exhaustive over the
// subsystem error kinds; anything unrecognized is labelled internal.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var mErr *market.Error
	if errors.As(err, &mErr) {
		return mErr.Kind.String()
	}

	var sErr *storage.Error
	if errors.As(err, &sErr) {
		return "storage"
	}

	switch {
	case errors.Is(err, storage.ErrUnknownTable):
		// Unknown endpoint/report key: a config mistake, not a retry target.
		return "configuration"
	case errors.Is(err, storage.ErrInvalidInput):
		return "validation"
	case errors.Is(err, storage.ErrNotFound):
		return "storage"
	case errors.Is(err, analysis.ErrInvalidPeriod):
		return "validation"
	}

	var iErr *analysis.ItemError
	if errors.As(err, &iErr) {
		return "analysis"
	}
	if errors.Is(err, analysis.ErrMissingBaseline) ||
		errors.Is(err, analysis.ErrMissingPrevTier) ||
		errors.Is(err, analysis.ErrZeroCost) {
		return "analysis"
	}

	return "internal"
}
