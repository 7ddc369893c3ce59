// Package report renders a parsed room map as a roster summary.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/roomroster/internal/roster"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Markdown renders rooms as one section per house with a table of rooms.
func Markdown(title string, rooms roster.RoomMap) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", escapeText(title))

	houses := rooms.Houses()
	if len(houses) == 0 {
		buf.WriteString("No rooms were found in this roster.\n")
		return buf.Bytes()
	}

	for _, s := range roster.Summary(rooms) {
		fmt.Fprintf(&buf, "- %s: %d rooms, %d residents\n", escapeText(s.House), s.Rooms, s.Residents)
	}
	buf.WriteString("\n")

	for _, house := range houses {
		fmt.Fprintf(&buf, "## %s\n\n", escapeText(house))
		buf.WriteString("| Room | Residents | Student numbers | Note |\n")
		buf.WriteString("| --- | --- | --- | --- |\n")
		for _, rec := range rooms.Rooms(house) {
			names := make([]string, 0, len(rec.Residents))
			numbers := make([]string, 0, len(rec.Residents))
			for _, r := range rec.Residents {
				names = append(names, escapeCell(r.Name))
				numbers = append(numbers, escapeCell(r.StudentNumber))
			}
			fmt.Fprintf(&buf, "| %s | %s | %s | %s |\n",
				escapeCell(rec.RoomNumber),
				strings.Join(names, ", "),
				strings.Join(numbers, ", "),
				escapeCell(rec.Note),
			)
		}
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// HTML renders the Markdown report to an HTML fragment.
func HTML(title string, rooms roster.RoomMap) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var out bytes.Buffer
	if err := md.Convert(Markdown(title, rooms), &out); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return out.Bytes(), nil
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	"#", `\#`,
	"\n", " ",
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(escapeText(s), "|", `\|`)
}
