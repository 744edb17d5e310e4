package discover

import "errors"

var (
	// ErrSearcherRequired indicates a Discoverer was built without a Searcher.
	ErrSearcherRequired = errors.New("searcher is required")

	// ErrSinkRequired indicates a Discoverer was built without a sink.
	ErrSinkRequired = errors.New("sink is required")

	// ErrQuotaRequired indicates a DailyQuota was built without a quota store.
	ErrQuotaRequired = errors.New("quota repository is required")

	// ErrAPIKeyRequired indicates an Exa client was built without an API key.
	ErrAPIKeyRequired = errors.New("exa api key is required")

	// ErrTopicRequired indicates an empty discovery topic.
	ErrTopicRequired = errors.New("topic is required")

	// ErrOwnerRequired indicates a discovery request without a user id.
	ErrOwnerRequired = errors.New("owner user id is required")

	// ErrQuotaExceeded indicates the owner used up today's discoveries.
	ErrQuotaExceeded = errors.New("daily discovery quota exceeded")

	// ErrInvalidLimit indicates a non-positive quota limit.
	ErrInvalidLimit = errors.New("quota limit must be positive")

	// ErrSearchFailed indicates the search backend returned an error.
	ErrSearchFailed = errors.New("search failed")

	// ErrNoTemplates indicates a Discoverer configured with no query templates.
	ErrNoTemplates = errors.New("at least one query template is required")
)
