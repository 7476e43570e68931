package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// maxPlotAuthors caps the bars on the activity chart.
const maxPlotAuthors = 20

// renderPlot writes an interactive HTML bar chart of commits per author.
func renderPlot(w io.Writer, rep *Report) error {
	authors := rep.Summary.Authors
	if len(authors) > maxPlotAuthors {
		authors = authors[:maxPlotAuthors]
	}

	names := make([]string, len(authors))
	commits := make([]opts.BarData, len(authors))
	added := make([]opts.BarData, len(authors))
	removed := make([]opts.BarData, len(authors))

	for i, author := range authors {
		label := author.Name
		if label == "" {
			label = author.Identity
		}

		names[i] = label
		commits[i] = opts.BarData{Value: author.Commits}
		added[i] = opts.BarData{Value: author.LinesAdded}
		removed[i] = opts.BarData{Value: author.LinesRemoved}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Harvest Summary",
			Subtitle: fmt.Sprintf("Per-author activity in %s", rep.RepoPath),
			Left:     "2%",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
			Top:  "5px",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Author"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Count"}),
	)

	bar.SetXAxis(names).
		AddSeries("Commits", commits).
		AddSeries("Lines added", added).
		AddSeries("Lines removed", removed)

	err := bar.Render(w)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	return nil
}
