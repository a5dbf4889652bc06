package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Chart file errors
	ErrUnknownEncoding = fmt.Errorf("unknown text encoding")
	ErrUndecodable     = fmt.Errorf("unable to decode with any configured encoding")

	// Library errors
	ErrRootNotFound = fmt.Errorf("songs folder not found")
	ErrNotDirectory = fmt.Errorf("not a directory")

	// History errors
	ErrScanNotFound = fmt.Errorf("scan not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
