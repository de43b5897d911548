package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrMissingToken  = fmt.Errorf("missing bot token")

	// Input classification errors
	ErrEmptyQuery   = fmt.Errorf("nothing to search")
	ErrInvalidInput = fmt.Errorf("invalid input")

	// Resolution errors. Strategy-level failures are absorbed by the
	// resolver and collapsed into ErrSourceUnavailable.
	ErrSourceUnavailable = fmt.Errorf("source unavailable")
	ErrNoResults         = fmt.Errorf("no results found")

	// Session errors
	ErrSessionExpired = fmt.Errorf("search session expired")

	// Acquisition errors
	ErrTransferTimeout  = fmt.Errorf("transfer timed out")
	ErrTranscodeTimeout = fmt.Errorf("transcode timed out")
	ErrTranscode        = fmt.Errorf("transcode failed")
	ErrOversizeArtifact = fmt.Errorf("artifact exceeds size ceiling")
	ErrFilesystem       = fmt.Errorf("filesystem error")

	// Throttling
	ErrRateLimited = fmt.Errorf("too many requests")
)
