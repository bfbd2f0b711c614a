// Package query provides validation and defaulting for traffic history queries.
//
// The validator ensures query parameters are valid before execution:
//
//   - Limit >= 0 and <= MaxLimit
//   - Offset >= 0
//   - Sort field is valid (request_time, latency, status_code)
//   - Sort order is valid (asc, desc)
//   - Time range is valid (start <= end)
//   - Status code range is valid (100-599, min <= max)
//   - Outcome is a known value
//
// # Basic Usage
//
//	q := &history.Query{
//	    StartTime: &startTime,
//	    EndTime:   &endTime,
//	    Backend:   "http://localhost:9000",
//	    Outcome:   history.OutcomeBackendUnavailable,
//	    Limit:     100,
//	    SortBy:    "request_time",
//	    SortOrder: "desc",
//	}
//
//	if err := query.Validate(q); err != nil {
//	    return err
//	}
//	query.ApplyDefaults(q)
//
//	records, err := storage.Query(ctx, q)
package query
