package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/roomroster/internal/upload"
)

const rosterCSV = "House A,,\nRoom,Name,No.\n101,Kim,20251234\n102,,\n"

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestRun_CSVJSON(t *testing.T) {
	path := writeFile(t, "rooms.csv", []byte(rosterCSV))
	var out, errOut bytes.Buffer

	require.NoError(t, run([]string{"-file", path}, &out, &errOut))

	var body struct {
		Rooms map[string]struct {
			Residents []map[string]string `json:"residents"`
		} `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &body))
	require.Contains(t, body.Rooms, "House A|101")
	assert.Len(t, body.Rooms["House A|101"].Residents, 1)
	assert.Empty(t, body.Rooms["House A|102"].Residents)
	assert.Contains(t, errOut.String(), "parsed roster")
}

func TestRun_Markdown(t *testing.T) {
	path := writeFile(t, "rooms.csv", []byte(rosterCSV))
	var out bytes.Buffer

	require.NoError(t, run([]string{"-format", "md", path}, &out, &bytes.Buffer{}))
	assert.Contains(t, out.String(), "## House A")
}

func TestRun_Blocks(t *testing.T) {
	path := writeFile(t, "rooms.csv", []byte(rosterCSV))
	var out bytes.Buffer

	require.NoError(t, run([]string{"-blocks", "-file", path}, &out, &bytes.Buffer{}))

	var sections []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &sections))
	assert.Len(t, sections, 1)
}

func TestRun_XLSXValidatedAndParsed(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"House B"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Room", "Name", "No."}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"201", "Park", "7"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	path := writeFile(t, "rooms.xlsx", buf.Bytes())

	var out bytes.Buffer
	require.NoError(t, run([]string{"-validate-only", "-file", path}, &out, &bytes.Buffer{}))
	assert.Equal(t, "ok\n", out.String())

	out.Reset()
	require.NoError(t, run([]string{"-file", path}, &out, &bytes.Buffer{}))
	assert.Contains(t, out.String(), "House B|201")
}

func TestRun_RejectsFakeWorkbook(t *testing.T) {
	path := writeFile(t, "rooms.xlsx", []byte(rosterCSV))

	err := run([]string{"-file", path}, &bytes.Buffer{}, &bytes.Buffer{})
	reason, ok := upload.ReasonOf(err)
	require.True(t, ok, "expected a rejection, got %v", err)
	assert.Equal(t, upload.ReasonSignatureMismatch, reason)
}

func TestRun_Errors(t *testing.T) {
	path := writeFile(t, "rooms.csv", []byte(rosterCSV))
	cases := map[string][]string{
		"no file":      {},
		"missing file": {"-file", filepath.Join(t.TempDir(), "absent.csv")},
		"bad format":   {"-format", "yaml", "-file", path},
		"unsupported":  {"-file", writeFile(t, "rooms.pdf", []byte("%PDF-1.7"))},
		"unknown flag": {"-nope"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, run(args, &bytes.Buffer{}, &bytes.Buffer{}))
		})
	}
}
