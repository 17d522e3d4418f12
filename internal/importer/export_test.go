package importer

// RetryWithBackoff exposes retryWithBackoff for testing.
var RetryWithBackoff = retryWithBackoff

// IsRetryableError exposes isRetryableError for testing.
var IsRetryableError = isRetryableError

// ErrNoSuchCandidate exposes errNoSuchCandidate for testing.
var ErrNoSuchCandidate = errNoSuchCandidate

// Test constants exposed for verification.
const (
	TestMaxRetries       = maxRetries
	TestInitialBackoff   = initialBackoff
	TestMaxBackoff       = maxBackoff
	TestOperationTimeout = operationTimeout
)

