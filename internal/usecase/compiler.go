package usecase

import (
	"fmt"
	"time"

	"TradeMind/internal/domain/models"
)

// CompileReport assembles the adjudication payload for one cycle. It is a
// pure function of its inputs: the same results and clock always produce
// the same report, so the payload sent to the decision service can be
// reproduced from the persisted filter rows.
func CompileReport(symbol string, results []models.FilterResult, compiledAt time.Time) (*models.PreAnalysisReport, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("compile report: no filter results for %s", symbol)
	}

	filters := make([]models.FilterResult, len(results))
	copy(filters, results)

	return &models.PreAnalysisReport{
		Symbol:          symbol,
		CandleTimestamp: results[0].CandleTimestamp,
		CompiledAt:      compiledAt,
		Filters:         filters,
	}, nil
}
