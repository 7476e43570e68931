package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// timestampLayout is how first/last seen timestamps render in tables.
const timestampLayout = "2006-01-02"

// renderText writes author and path tables plus the run summary line.
func renderText(w io.Writer, rep *Report) error {
	fmt.Fprintf(w, "Harvest of %s\n\n", rep.RepoPath)

	writeAuthorTable(w, rep)
	fmt.Fprintln(w)
	writePathTable(w, rep)

	added, removed := rep.Summary.TotalLines()

	fmt.Fprintf(w, "\nTotals: %s commits, +%s / -%s lines, %s authors, %s paths\n",
		humanize.Comma(int64(rep.Summary.TotalCommits())),
		humanize.Comma(int64(added)),
		humanize.Comma(int64(removed)),
		humanize.Comma(int64(len(rep.Summary.Authors))),
		humanize.Comma(int64(len(rep.Summary.Paths))),
	)

	if rep.Run != nil {
		fmt.Fprintf(w, "Run: %d seen, %d ingested, %d skipped, %d duplicates in %s\n",
			rep.Run.Seen, rep.Run.Ingested, rep.Run.Skipped, rep.Run.Duplicates,
			rep.Run.Elapsed.Round(time.Millisecond),
		)
	}

	return nil
}

func writeAuthorTable(w io.Writer, rep *Report) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Author", "Identity", "Commits", "Merges", "Added", "Removed", "First", "Last"})

	rows := 0

	for _, author := range rep.Summary.Authors {
		if rep.MaxRows > 0 && rows >= rep.MaxRows {
			break
		}

		tbl.AppendRow(table.Row{
			author.Name,
			author.Identity,
			humanize.Comma(int64(author.Commits)),
			humanize.Comma(int64(author.Merges)),
			humanize.Comma(int64(author.LinesAdded)),
			humanize.Comma(int64(author.LinesRemoved)),
			author.FirstSeen.Format(timestampLayout),
			author.LastSeen.Format(timestampLayout),
		})

		rows++
	}

	tbl.Render()
}

func writePathTable(w io.Writer, rep *Report) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Path", "Language", "Commits", "Added", "Removed"})

	rows := 0

	for _, p := range rep.Summary.Paths {
		if rep.MaxRows > 0 && rows >= rep.MaxRows {
			break
		}

		tbl.AppendRow(table.Row{
			p.Path,
			p.Language,
			humanize.Comma(int64(p.Commits)),
			humanize.Comma(int64(p.LinesAdded)),
			humanize.Comma(int64(p.LinesRemoved)),
		})

		rows++
	}

	tbl.Render()
}
