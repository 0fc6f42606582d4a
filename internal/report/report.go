// Package report renders a short run report, first as markdown and then as a
// standalone HTML page next to the output workbook.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"grouper/domain/trial"
	"grouper/internal/errors"
	"grouper/internal/pipeline"
)

// inlineTables are rendered in full; the rest only get a size line.
var inlineTables = map[string]bool{
	"Reversals":     true,
	"Avg Winshifts": true,
	"Group Means":   true,
}

// maxInlineRows caps how much of an inline table is rendered.
const maxInlineRows = 50

// Meta is run context that the pipeline result does not carry.
type Meta struct {
	DataDir    string
	RosterFile string
}

// Markdown builds the report body.
func Markdown(res *pipeline.Result, meta Meta) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s run %s\n\n", res.Task, res.RunID.Short())

	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Run | `%s` |\n", res.RunID)
	fmt.Fprintf(&b, "| Started | %s |\n", res.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "| Duration | %s |\n", res.Duration)
	if meta.DataDir != "" {
		fmt.Fprintf(&b, "| Data | `%s` |\n", meta.DataDir)
	}
	roster := meta.RosterFile
	if roster == "" {
		roster = "built-in"
	}
	fmt.Fprintf(&b, "| Roster | %s |\n", roster)
	fmt.Fprintf(&b, "| Input rows | %d |\n", res.InputRows)
	fmt.Fprintf(&b, "| Partitions | %d |\n", res.Partitions)
	if res.OutputPath != "" {
		fmt.Fprintf(&b, "| Workbook | `%s` |\n", filepath.Base(res.OutputPath))
	}
	b.WriteString("\n")

	for _, t := range res.Tables {
		fmt.Fprintf(&b, "## %s\n\n", t.Name)
		fmt.Fprintf(&b, "%d rows, %d columns.\n\n", t.Len(), len(t.Headers))
		if missing := undefinedSummary(t); missing != "" {
			fmt.Fprintf(&b, "Undefined cells: %s.\n\n", missing)
		}
		if inlineTables[t.Name] && t.Len() > 0 {
			writeTable(&b, t)
		}
	}
	return b.Bytes()
}

func undefinedSummary(t trial.Table) string {
	var parts []string
	for _, h := range t.Headers {
		if n := t.Undefined(h); n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", h, n))
		}
	}
	return strings.Join(parts, ", ")
}

func writeTable(b *bytes.Buffer, t trial.Table) {
	b.WriteString("| " + strings.Join(t.Headers, " | ") + " |\n")
	b.WriteString(strings.Repeat("|---", len(t.Headers)) + "|\n")
	for i, row := range t.Rows {
		if i == maxInlineRows {
			fmt.Fprintf(b, "\n_%d more rows in the workbook._\n", t.Len()-maxInlineRows)
			break
		}
		cells := make([]string, len(t.Headers))
		for j := range cells {
			if j < len(row) {
				cells[j] = FormatCell(row[j])
			}
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	b.WriteString("\n")
}

// FormatCell renders a table cell for display. Undefined cells read "NA".
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NA"
	case float64:
		return strconv.FormatFloat(x, 'f', 4, 64)
	case string:
		return strings.ReplaceAll(x, "|", `\|`)
	default:
		return fmt.Sprint(x)
	}
}

// HTML renders markdown into a complete HTML page.
func HTML(md []byte, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML(md, p, renderer)
}

// PathFor returns where the report for a workbook goes.
func PathFor(workbook string) string {
	return strings.TrimSuffix(workbook, filepath.Ext(workbook)) + ".html"
}

// Write renders the report for res and stores it beside the workbook.
func Write(res *pipeline.Result, meta Meta) (string, error) {
	if res.OutputPath == "" {
		return "", errors.InvalidInput("run has no output workbook")
	}
	path := PathFor(res.OutputPath)
	page := HTML(Markdown(res, meta), fmt.Sprintf("%s %s", res.Task, res.RunID.Short()))
	if err := os.WriteFile(path, page, 0o644); err != nil {
		return "", errors.IOError(fmt.Sprintf("failed to write report %s", path), err)
	}
	return path, nil
}
