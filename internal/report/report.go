// Package report renders harvest snapshots for the terminal, as YAML, or
// as an interactive HTML plot.
package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/githarvest/git-harvest/pkg/harvest"
)

// ErrUnknownFormat is returned for a format name no renderer handles.
var ErrUnknownFormat = errors.New("unknown report format")

// Report bundles everything a renderer needs.
type Report struct {
	RepoPath string
	Summary  *harvest.Summary
	Run      *harvest.RunSummary
	// MaxRows caps the author and path rows in table output.
	MaxRows int
}

// Render writes the report in the requested format.
func Render(w io.Writer, format string, rep *Report) error {
	switch format {
	case "text":
		return renderText(w, rep)
	case "yaml":
		return renderYAML(w, rep)
	case "plot":
		return renderPlot(w, rep)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
