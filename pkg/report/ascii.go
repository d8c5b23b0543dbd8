package report

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"emperror.dev/errors"
	"github.com/Masterminds/sprig/v3"
	"github.com/google/renameio/v2"
	"github.com/nwb-archive/gonwb/pkg/qc"
)

//go:embed templates/*.gotmpl
var templateFS embed.FS

type fileView struct {
	ID       string
	Datasets int
	Failed   int
	Failure  string
	Lines    []string
	Fixity   []string
}

type asciiView struct {
	RunID        string
	Tool         string
	Version      string
	Experimenter string
	CreatedAt    time.Time
	Checks       []*qc.Check
	Files        []fileView

	TotalDatasets int
	TotalFailed   int
}

func newFuncMap() template.FuncMap {
	funcMap := sprig.FuncMap()
	funcMap["humanizeTime"] = func(t time.Time) string {
		return t.Format("2006-01-02 15:04:05")
	}
	return funcMap
}

func fileViews(rs *qc.ResultSet) []fileView {
	ids := make([]string, 0, len(rs.Files))
	for id := range rs.Files {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	views := make([]fileView, 0, len(ids))
	for _, id := range ids {
		fr := rs.Files[id]
		views = append(views, fileView{
			ID:       id,
			Datasets: fr.CountDatasets(),
			Failed:   fr.FailureCount(),
			Failure:  fr.Failure,
			Lines:    qc.FlattenFailures(fr),
			Fixity:   fixityLines(fr),
		})
	}
	return views
}

func fixityLines(fr qc.FileResult) []string {
	var lines []string
	for _, key := range []string{"nwb", "igor"} {
		digests, ok := fr.Fixity[key]
		if !ok {
			continue
		}
		algs := make([]string, 0, len(digests))
		for alg := range digests {
			algs = append(algs, alg)
		}
		sort.Strings(algs)
		for _, alg := range algs {
			lines = append(lines, fmt.Sprintf("%s %s: %s", key, alg, digests[alg]))
		}
	}
	return lines
}

// WriteAscii renders the plain-text report of a result set.
func WriteAscii(w io.Writer, rs *qc.ResultSet) error {
	tpl, err := template.New("ascii.gotmpl").Funcs(newFuncMap()).ParseFS(templateFS, "templates/ascii.gotmpl")
	if err != nil {
		return errors.Wrap(err, "cannot parse report template")
	}
	view := asciiView{
		RunID:        rs.RunID,
		Tool:         rs.Tool,
		Version:      rs.Version,
		Experimenter: rs.Experimenter,
		CreatedAt:    rs.CreatedAt,
		Checks:       qc.Checks(),
		Files:        fileViews(rs),
	}
	for _, fv := range view.Files {
		view.TotalDatasets += fv.Datasets
		view.TotalFailed += fv.Failed
	}
	if err := tpl.Execute(w, view); err != nil {
		return errors.Wrap(err, "cannot render report")
	}
	return nil
}

// SaveAscii writes the plain-text report into dir as
// <experimenter>_report.txt and returns the path.
func SaveAscii(dir string, rs *qc.ResultSet) (string, error) {
	var buf bytes.Buffer
	if err := WriteAscii(&buf, rs); err != nil {
		return "", err
	}
	path := filepath.Join(dir, reportStem(rs.Experimenter)+"_report.txt")
	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", errors.Wrapf(err, "cannot write report to '%s'", path)
	}
	return path, nil
}

// reportStem turns the experimenter name into a usable file stem.
func reportStem(experimenter string) string {
	stem := strings.TrimSpace(experimenter)
	if stem == "" {
		return "unknown"
	}
	stem = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, stem)
	return stem
}
