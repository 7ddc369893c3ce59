// Command rosterctl parses a room roster file and prints the room map.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dgallion1/roomroster/internal/grid"
	"github.com/dgallion1/roomroster/internal/report"
	"github.com/dgallion1/roomroster/internal/roster"
	"github.com/dgallion1/roomroster/internal/upload"
)

func main() {
	_ = godotenv.Load()
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "rosterctl:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("rosterctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		file         = fs.String("file", "", "roster file (.xlsx, .csv, .html)")
		sheet        = fs.String("sheet", os.Getenv("ROSTER_SHEET"), "worksheet name (default: first sheet)")
		declared     = fs.String("type", upload.XLSXType, "declared content type used for .xlsx validation")
		format       = fs.String("format", "json", "output format: json, md, html")
		blocks       = fs.Bool("blocks", false, "print decoded sections instead of the room map")
		validateOnly = fs.Bool("validate-only", false, "validate the upload and exit")
		verbose      = fs.Bool("v", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" && fs.NArg() > 0 {
		*file = fs.Arg(0)
	}
	if *file == "" {
		fs.Usage()
		return errors.New("-file is required")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	name := filepath.Base(*file)
	if !grid.IsSupportedExtension(name) {
		return fmt.Errorf("unsupported file type: %s", filepath.Ext(name))
	}
	data, err := os.ReadFile(*file)
	if err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(name), ".xlsx") || *validateOnly {
		u := &upload.Upload{Filename: name, DeclaredType: *declared, Size: int64(len(data)), Data: data}
		if err := upload.Validate(u); err != nil {
			return err
		}
		log.Debug("upload accepted", "file", name, "bytes", len(data))
	}
	if *validateOnly {
		fmt.Fprintln(stdout, "ok")
		return nil
	}

	dec, err := grid.ForFile(name, grid.Options{Sheet: *sheet})
	if err != nil {
		return err
	}
	g, err := dec.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	log.Debug("decoded grid", "rows", g.RowCount(), "columns", g.ColumnCount())

	layout := roster.DefaultLayout()
	sections := layout.Sections(g)
	rooms := roster.Assemble(sections)
	log.Info("parsed roster", "file", name, "sections", len(sections), "rooms", len(rooms))

	if *blocks {
		return writeJSON(stdout, sections)
	}

	switch *format {
	case "json":
		return writeJSON(stdout, map[string]any{
			"summary": roster.Summary(rooms),
			"rooms":   rooms,
		})
	case "md", "markdown":
		_, err = stdout.Write(report.Markdown("Room roster: "+name, rooms))
		return err
	case "html":
		out, err := report.HTML("Room roster: "+name, rooms)
		if err != nil {
			return err
		}
		_, err = stdout.Write(out)
		return err
	default:
		return fmt.Errorf("unsupported format %q", *format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
