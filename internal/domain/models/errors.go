package models

import "errors"

// Error taxonomy. Configuration and unrecoverable persistence errors are
// fatal at startup / runtime; everything else is cycle-scoped.
var (
	// ErrInsufficientHistory marks a filter shortfall. Filters report it in
	// their metrics and degrade to FlagNone; it never aborts the engine.
	ErrInsufficientHistory = errors.New("insufficient candle history")

	// ErrDecisionTimeout means the adjudicator did not answer inside the
	// configured deadline. Late responses are discarded, not applied.
	ErrDecisionTimeout = errors.New("decision service timeout")

	// ErrDecisionService means the adjudicator was unreachable or returned
	// a malformed payload.
	ErrDecisionService = errors.New("decision service failure")

	// ErrRejected means risk rules blocked the trade. Normal operation.
	ErrRejected = errors.New("sizing rejected")

	// ErrExecutionFailed means the exchange rejected the order.
	ErrExecutionFailed = errors.New("execution failed")

	// ErrPersistence means a store write failed and was handed to the
	// retry buffer.
	ErrPersistence = errors.New("persistence failure")
)
