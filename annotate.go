// Package annotate loads PDF and DOCX documents, records vector
// annotations per page and exports PDFs with the annotations baked in.
package annotate

import (
	"github.com/akeil/annotate/internal/logging"
)

// SetLogLevel sets the log level by name (debug, info, warning, error).
// Any other value disables logging.
func SetLogLevel(level string) {
	logging.SetLevel(logging.ParseLevel(level))
}
