package apiquery

import "time"

// Query is one audited upstream API call.
type Query struct {
	ID         int64
	URL        string
	StatusCode int
	DateTS     time.Time
}
