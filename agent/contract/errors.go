package contract

import "errors"

// Sentinels shared by agents, generators and router nodes. Callers wrap them
// with context and match with errors.Is.
var (
	// ErrModelInvoke covers transport and provider failures of a generator,
	// including an open circuit breaker.
	ErrModelInvoke = errors.New("model invoke failed")
	// ErrSchemaViolation means the model answered with something unusable,
	// such as an empty reply or a routing analysis that is not a JSON object.
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")
	// ErrNoResponse is returned when an agent or a model stays silent where an
	// answer is required.
	ErrNoResponse = errors.New("agent returned no response")
)
