package genclient

// AttemptResult is the outcome of a single generation call. Failures are
// data, not errors: transport problems, empty responses, and storage write
// failures all come back as Success=false with a message, so the caller's
// failure policy stays in one place.
//
// AttemptResult is transient: it is consumed by the pipeline and never
// persisted directly.
type AttemptResult struct {
	// Success reports whether the stage produced a stored artifact.
	Success bool

	// Path is the content-store location of the artifact, when Success.
	Path string

	// Payload holds the decoded artifact bytes, when Success. The model
	// stage consumes the image stage's payload without re-reading disk.
	Payload []byte

	// Err is a human-readable failure message, when !Success.
	Err string
}

// failure builds an unsuccessful result with the given message.
func failure(msg string) AttemptResult {
	return AttemptResult{Success: false, Err: msg}
}
