package agent

import "errors"

// Upstream model failure classes. The API boundary maps each to a
// distinct outward status, so model clients must wrap provider errors
// with exactly one of these.
var (
	// ErrModelAuth indicates the model rejected our credentials.
	ErrModelAuth = errors.New("model authentication failed")

	// ErrModelRateLimited indicates the model provider throttled us and
	// retries were exhausted.
	ErrModelRateLimited = errors.New("model rate limited")

	// ErrModelTimeout indicates the model call did not complete in time.
	ErrModelTimeout = errors.New("model call timed out")

	// ErrModelFailure is the generic model failure for everything else.
	ErrModelFailure = errors.New("model call failed")
)

// ErrUnknownTool is returned by the registry when the model names a
// tool that does not exist. The orchestrator converts it into a
// structured error result for that call rather than failing the run.
var ErrUnknownTool = errors.New("unknown tool")
