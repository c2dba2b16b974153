package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/workspace"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

const maxStars = 5

func renderTable(headers []string, rows [][]string, aligns []columnAlignment, tty bool) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if tty {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
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

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func stars(n int) string {
	if n < 0 {
		n = 0
	}
	return strings.Repeat("★", n)
}

// starBar renders filled stars followed by empty ones up to five.
func starBar(filled int) string {
	if filled > maxStars {
		filled = maxStars
	}
	return stars(filled) + strings.Repeat("☆", maxStars-max(filled, 0))
}

func renderAggregate(v workspace.View) string {
	return fmt.Sprintf("평균 평점: %.1f %s (%d개의 리뷰)",
		v.AverageRating, stars(int(math.Round(v.AverageRating))), v.TotalCount)
}

func renderPager(v workspace.View) string {
	var b strings.Builder
	if v.PrevEnabled {
		b.WriteString("[ ‹")
	} else {
		b.WriteString("    ")
	}
	for _, btn := range v.Buttons {
		if btn.Selected {
			fmt.Fprintf(&b, " (%d)", btn.Page+1)
		} else {
			fmt.Fprintf(&b, "  %d ", btn.Page+1)
		}
	}
	if v.NextEnabled {
		b.WriteString(" › ]")
	}
	return b.String()
}

func renderWorkspace(v workspace.View, tty bool) string {
	rows := make([][]string, 0, len(v.Reviews))
	for _, r := range v.Reviews {
		rows = append(rows, []string{r.Nickname, stars(r.Rating), r.Content})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "리뷰: %s\n", v.Ref)
	b.WriteString(renderAggregate(v))
	b.WriteString("\n")
	if len(rows) == 0 {
		b.WriteString("(리뷰가 없습니다)\n")
	} else {
		b.WriteString(renderTable([]string{"작성자", "평점", "내용"}, rows, nil, tty))
		b.WriteString("\n")
	}
	b.WriteString(renderPager(v))
	b.WriteString("\n")
	return b.String()
}
