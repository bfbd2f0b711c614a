package query

import (
	"fmt"

	"mercator-hq/mercury/pkg/history"
)

const (
	// DefaultLimit is the default number of records to return if not specified.
	DefaultLimit = 100

	// MaxLimit is the maximum number of records that can be returned in a single query.
	MaxLimit = 10000
)

// ValidSortFields contains the fields that can be used for sorting.
var ValidSortFields = map[string]bool{
	"request_time": true,
	"latency":      true,
	"status_code":  true,
}

// ValidSortOrders contains the valid sort orders.
var ValidSortOrders = map[string]bool{
	"asc":  true,
	"desc": true,
}

// ValidOutcomes contains the valid outcome filter values.
var ValidOutcomes = map[string]bool{
	history.OutcomeForwarded:          true,
	history.OutcomeBackendUnavailable: true,
}

// Validate validates a query and returns an error if any parameters are invalid.
func Validate(q *history.Query) error {
	// Validate limit
	if q.Limit < 0 {
		return history.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return history.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}

	// Validate offset
	if q.Offset < 0 {
		return history.NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}

	// Validate sort field
	if q.SortBy != "" && !ValidSortFields[q.SortBy] {
		return history.NewQueryError(q, fmt.Errorf("invalid sort field: %s", q.SortBy))
	}

	// Validate sort order
	if q.SortOrder != "" && !ValidSortOrders[q.SortOrder] {
		return history.NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}

	// Validate time range
	if q.StartTime != nil && q.EndTime != nil {
		if q.StartTime.After(*q.EndTime) {
			return history.NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
		}
	}

	// Validate status code range
	if q.MinStatus != nil && (*q.MinStatus < 100 || *q.MinStatus > 599) {
		return history.NewQueryError(q, fmt.Errorf("min_status must be a valid HTTP status code, got %d", *q.MinStatus))
	}
	if q.MaxStatus != nil && (*q.MaxStatus < 100 || *q.MaxStatus > 599) {
		return history.NewQueryError(q, fmt.Errorf("max_status must be a valid HTTP status code, got %d", *q.MaxStatus))
	}
	if q.MinStatus != nil && q.MaxStatus != nil {
		if *q.MinStatus > *q.MaxStatus {
			return history.NewQueryError(q, fmt.Errorf("min_status must be <= max_status"))
		}
	}

	// Validate outcome
	if q.Outcome != "" && !ValidOutcomes[q.Outcome] {
		return history.NewQueryError(q, fmt.Errorf("invalid outcome: %s (must be %q or %q)",
			q.Outcome, history.OutcomeForwarded, history.OutcomeBackendUnavailable))
	}

	return nil
}

// ApplyDefaults applies default values to a query.
func ApplyDefaults(q *history.Query) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}

	if q.SortBy == "" {
		q.SortBy = "request_time"
	}

	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}
