package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrNoJSONObject is returned by ExtractJSONObject when the reply holds no balanced object.
var ErrNoJSONObject = errors.New("no JSON object in reply")
