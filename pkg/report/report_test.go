package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nwb-archive/gonwb/pkg/qc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() *qc.ResultSet {
	return &qc.ResultSet{
		RunID:        "0c7ce947-75fd-4b36-9e99-d8b7e0a645b0",
		Experimenter: "Rodrigo Perin",
		Tool:         "gonwb",
		Version:      "1.0.0",
		CreatedAt:    time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		Files: map[string]qc.FileResult{
			"170106_2A": {
				Metadata: map[string]bool{"identifier": true, "experimenter": false},
				Datasets: map[string]map[string]qc.DatasetResult{
					"acquisition": {
						"ccs__IDrest__03": {
							Data:               map[string]bool{"data_equal": true},
							MetadataValidation: map[string]bool{"wavenotes_equal": false},
						},
					},
				},
				Fixity: map[string]map[string]string{
					"nwb": {"sha256": "deadbeef"},
				},
			},
			"170107_1B": {
				Metadata: map[string]bool{"identifier": true},
				Datasets: map[string]map[string]qc.DatasetResult{
					"acquisition": {
						"ccs__IDrest__01": {
							Data: map[string]bool{"data_equal": true},
						},
					},
				},
			},
			"170108_3C": {
				Failure: "igor archive missing",
			},
		},
	}
}

func TestWriteAscii(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAscii(&buf, sampleResults()))
	out := buf.String()

	assert.Contains(t, out, "NWB conversion quality control report")
	assert.Contains(t, out, "Experimenter: Rodrigo Perin")
	assert.Contains(t, out, "V003  wavenotes_equal")
	assert.Contains(t, out, "metadata/experimenter failed.")
	assert.Contains(t, out, "datasets/acquisition/ccs__IDrest__03/metadata_validation/wavenotes_equal failed.")
	assert.Contains(t, out, "170106_2A  (1 dataset, 2 failed checks)")
	assert.Contains(t, out, "170107_1B  (1 dataset, 0 failed checks)")
	assert.Contains(t, out, "all checks passed.")
	assert.Contains(t, out, "NOT VALIDATED: igor archive missing")
	assert.Contains(t, out, "nwb sha256: deadbeef")
	assert.Contains(t, out, "3 files, 2 datasets, 2 failed checks.")
	assert.True(t, strings.HasSuffix(strings.TrimRight(out, "\n"), "Report is created successfully."),
		"report must end with the success line, got: %q", out[max(0, len(out)-80):])

	// files come out in sorted order
	assert.Less(t, strings.Index(out, "170106_2A"), strings.Index(out, "170107_1B"))
}

func TestSaveAscii(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveAscii(dir, sampleResults())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Rodrigo_Perin_report.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Report is created successfully.")
}

func TestSaveAsciiUnknownExperimenter(t *testing.T) {
	rs := sampleResults()
	rs.Experimenter = ""
	dir := t.TempDir()
	path, err := SaveAscii(dir, rs)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "unknown_report.txt"), path)
}

func TestSaveFormats(t *testing.T) {
	dir := t.TempDir()

	path, err := Save(dir, FormatAscii, "batch1", sampleResults())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Rodrigo_Perin_report.txt"), path)

	path, err = Save(dir, FormatMarkdown, "batch1", sampleResults())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nwb_qc_batch1.md"), path)

	_, err = Save(dir, "latex", "batch1", sampleResults())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown report format 'latex'")
}

func TestWriteMarkdown(t *testing.T) {
	out := WriteMarkdown(sampleResults())

	assert.Contains(t, out, "NWB conversion quality control report")
	assert.Contains(t, out, "`V010` data_equal")
	assert.Contains(t, out, "170106_2A")
	assert.Contains(t, out, "* datasets/acquisition/ccs__IDrest__03/metadata_validation/wavenotes_equal failed.")
	assert.Contains(t, out, "**NOT VALIDATED**: igor archive missing")
	assert.Contains(t, out, "All checks passed.")
}

func TestSaveMarkdown(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveMarkdown(dir, "batch1", sampleResults())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nwb_qc_batch1.md"), path)

	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
}
