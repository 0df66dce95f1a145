package llm

import "errors"

var (
	// ErrAPIKeyMissing means no API key was found in config or environment.
	ErrAPIKeyMissing = errors.New("API key missing")

	// ErrEmptyResponse means the model returned no candidates or no content.
	ErrEmptyResponse = errors.New("model returned empty response")
)
