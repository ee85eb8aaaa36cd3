package scoring

import "errors"

var (
	ErrInvalidWeights    = errors.New("scoring config weights must sum to 100")
	ErrWeightOutOfRange  = errors.New("scoring config weights must be between 0 and 100")
	ErrUnknownReportType = errors.New("unknown admin report type")
)
