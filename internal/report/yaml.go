package report

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/githarvest/git-harvest/pkg/harvest"
)

// yamlDocument is the serialized report shape.
type yamlDocument struct {
	Repository string                 `yaml:"repository"`
	Authors    []harvest.AuthorTotals `yaml:"authors"`
	Paths      []harvest.PathTotals   `yaml:"paths"`
	Run        *harvest.RunSummary    `yaml:"run,omitempty"`
}

// renderYAML writes the full snapshot as a YAML document, preserving
// insertion order.
func renderYAML(w io.Writer, rep *Report) error {
	doc := yamlDocument{
		Repository: rep.RepoPath,
		Authors:    rep.Summary.Authors,
		Paths:      rep.Summary.Paths,
		Run:        rep.Run,
	}

	encoder := yaml.NewEncoder(w)

	err := encoder.Encode(doc)
	if err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}

	err = encoder.Close()
	if err != nil {
		return fmt.Errorf("close yaml encoder: %w", err)
	}

	return nil
}
