package pipeline

import (
	"maps"
	"strconv"
	"time"
)

type request struct {
	queryID string
	tenant  string
	filters map[string]any
	k       int
}

// RequestOption configures a single Process call.
type RequestOption func(*request)

// WithQueryID sets the query ID. Default is derived from the request time.
func WithQueryID(id string) RequestOption {
	return func(r *request) { r.queryID = id }
}

// WithTenant names the tenant the query is issued for.
func WithTenant(tenant string) RequestOption {
	return func(r *request) { r.tenant = tenant }
}

// WithFilters restricts retrieval to documents whose metadata matches every
// dotted-path equality filter.
func WithFilters(filters map[string]any) RequestOption {
	return func(r *request) { r.filters = maps.Clone(filters) }
}

// WithK sets how many contexts to retrieve. Default is the retriever's.
func WithK(k int) RequestOption {
	return func(r *request) { r.k = k }
}

func newRequest(now time.Time, opts []RequestOption) *request {
	r := &request{}
	for _, opt := range opts {
		opt(r)
	}
	if r.queryID == "" {
		r.queryID = "q-" + strconv.FormatInt(now.UnixNano(), 36)
	}
	return r
}
