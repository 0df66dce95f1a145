package agent

import "errors"

var (
	// ErrRecursionLimit means a loop exhausted its reasoning/acting round
	// budget without producing a final answer.
	ErrRecursionLimit = errors.New("recursion limit exceeded")

	// ErrUnknownAgent means delegation named an unregistered sub-agent.
	ErrUnknownAgent = errors.New("unknown agent")
)
