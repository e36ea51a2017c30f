package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/alnah/vid2txt/internal/batch"
	"github.com/alnah/vid2txt/internal/format"
	"github.com/alnah/vid2txt/internal/preflight"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable renders rows under headers with a rounded border.
// Missing cells render empty.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// writeSummary prints one row per processed video.
func writeSummary(w io.Writer, s batch.Summary) {
	if len(s.Files) == 0 {
		return
	}

	headers := []string{"Video", "Audio", "Windows", "Text", "Missed", "Failed", "Elapsed", "Status"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft}

	rows := make([][]string, 0, len(s.Files))
	for _, f := range s.Files {
		rows = append(rows, []string{
			filepath.Base(f.Video),
			format.Duration(f.Report.Duration),
			strconv.Itoa(f.Report.Windows),
			strconv.Itoa(f.Report.Recognized),
			strconv.Itoa(f.Report.Missed),
			strconv.Itoa(f.Report.Failed),
			format.Duration(f.Elapsed),
			fileStatus(f),
		})
	}

	fmt.Fprintln(w, renderTable(headers, rows, aligns))
	fmt.Fprintf(w, "%d transcribed, %d failed\n", s.Succeeded(), s.Failed())
}

func fileStatus(f batch.FileResult) string {
	switch {
	case f.Err != nil && f.Report.Partial:
		return "partial"
	case f.Err != nil:
		return "failed"
	default:
		return "ok"
	}
}

// writeChecks prints one row per preflight check.
func writeChecks(w io.Writer, results []preflight.Result) {
	headers := []string{"Check", "Status", "Detail"}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		detail := r.Detail
		if r.Err != nil {
			detail = r.Err.Error()
		}
		rows = append(rows, []string{r.Name, checkStatus(r), detail})
	}

	fmt.Fprintln(w, renderTable(headers, rows, nil))
}

func checkStatus(r preflight.Result) string {
	switch {
	case r.Passed:
		return "ok"
	case r.Required:
		return "missing"
	default:
		return "warning"
	}
}
