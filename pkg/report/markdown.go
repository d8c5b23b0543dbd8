package report

import (
	"fmt"
	"path/filepath"

	"emperror.dev/errors"
	"github.com/atsushinee/go-markdown-generator/doc"
	"github.com/dustin/go-humanize"
	"github.com/google/renameio/v2"
	"github.com/nwb-archive/gonwb/pkg/qc"
)

// WriteMarkdown renders the markdown report of a result set.
func WriteMarkdown(rs *qc.ResultSet) string {
	md := doc.NewMarkDown()
	md.WriteTitle("NWB conversion quality control report", doc.LevelTitle).
		WriteLines(2)
	md.Write(fmt.Sprintf("Run `%s` of %s %s, created %s.",
		rs.RunID, rs.Tool, rs.Version, humanize.Time(rs.CreatedAt))).
		WriteLines(2)
	md.Write(fmt.Sprintf("Experimenter: %s", orUnknown(rs.Experimenter))).
		WriteLines(2)

	md.WriteTitle("Criteria", doc.LevelNormal).
		WriteLines(2)
	for _, check := range qc.Checks() {
		md.Write(fmt.Sprintf("* `%s` %s: %s", check.Code, check.Name, check.Description)).
			WriteLines(1)
	}
	md.WriteLines(1)

	md.WriteTitle("Results", doc.LevelNormal).
		WriteLines(2)
	for _, fv := range fileViews(rs) {
		md.WriteTitle(fv.ID, doc.LevelNormal).
			WriteLines(2)
		md.Write(fmt.Sprintf("%d datasets, %d failed checks.", fv.Datasets, fv.Failed)).
			WriteLines(2)
		if fv.Failure != "" {
			md.Write(fmt.Sprintf("**NOT VALIDATED**: %s", fv.Failure)).
				WriteLines(2)
			continue
		}
		if len(fv.Lines) == 0 {
			md.Write("All checks passed.").
				WriteLines(2)
			continue
		}
		for _, line := range fv.Lines {
			md.Write(fmt.Sprintf("* %s", line)).
				WriteLines(1)
		}
		md.WriteLines(1)
	}
	return md.String()
}

// SaveMarkdown writes the markdown report into dir as nwb_qc_<postfix>.md
// and returns the path.
func SaveMarkdown(dir, postfix string, rs *qc.ResultSet) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("nwb_qc_%s.md", postfix))
	if err := renameio.WriteFile(path, []byte(WriteMarkdown(rs)), 0o644); err != nil {
		return "", errors.Wrapf(err, "cannot write report to '%s'", path)
	}
	return path, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
