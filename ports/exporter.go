package ports

import (
	"immunoscope/domain/outcome"
)

// RunExporter writes the charting inputs of a completed run to a file
type RunExporter interface {
	Export(path string, run *outcome.Run) error
}
