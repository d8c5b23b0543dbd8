package batch

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"emperror.dev/errors"
	"gopkg.in/yaml.v2"
)

// Entry maps one NWB file to its IGOR source archive. Tar may be empty, in
// which case the archive is looked up next to the NWB file by basename.
type Entry struct {
	NWB string
	Tar string
}

// LoadMapFile reads a batch map file. YAML files (.yaml/.yml) carry an
// `nwb: tar` mapping, everything else is parsed as headerless two-column
// CSV (nwb,tar).
func LoadMapFile(path string) ([]Entry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAMLMap(path)
	default:
		return loadCSVMap(path)
	}
}

func loadCSVMap(path string) ([]Entry, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open map file '%s'", path)
	}
	defer fp.Close()

	r := csv.NewReader(fp)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse map file '%s'", path)
	}

	var entries []Entry
	for i, rec := range records {
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		if len(rec) > 2 {
			return nil, errors.Errorf("map file '%s' line %d: expected 'nwb,tar', got %d columns", path, i+1, len(rec))
		}
		e := Entry{NWB: strings.TrimSpace(rec[0])}
		if len(rec) == 2 {
			e.Tar = strings.TrimSpace(rec[1])
		}
		if e.NWB == "" {
			return nil, errors.Errorf("map file '%s' line %d: empty nwb path", path, i+1)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func loadYAMLMap(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read map file '%s'", path)
	}
	mapping := map[string]string{}
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return nil, errors.Wrapf(err, "cannot parse map file '%s'", path)
	}

	entries := make([]Entry, 0, len(mapping))
	for nwb, tarPath := range mapping {
		entries = append(entries, Entry{NWB: nwb, Tar: tarPath})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].NWB < entries[j].NWB })
	return entries, nil
}

// ScanDir lists all *.nwb files below dir as entries, archives resolved by
// basename next to each file.
func ScanDir(dir string) ([]Entry, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.nwb"))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot scan '%s'", dir)
	}
	sort.Strings(matches)
	entries := make([]Entry, 0, len(matches))
	for _, m := range matches {
		entries = append(entries, Entry{NWB: m})
	}
	return entries, nil
}

// DefaultTar derives the archive base path of an NWB file, the archive
// sitting next to it under the same stem.
func DefaultTar(nwbPath string) string {
	return strings.TrimSuffix(nwbPath, filepath.Ext(nwbPath))
}
