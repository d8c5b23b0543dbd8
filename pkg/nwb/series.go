package nwb

import (
	"path"
	"regexp"
	"sort"
	"strconv"

	"emperror.dev/errors"
)

// SeriesKind distinguishes the two sweep sections of a file.
type SeriesKind string

const (
	KindAcquisition SeriesKind = "acquisition"
	KindStimulus    SeriesKind = "stimulus"
)

// Series is one patch-clamp sweep (response or stimulus).
type Series struct {
	Name        string
	Kind        SeriesKind
	Description string
	Rate        float64
	HasRate     bool
	Gain        float64
	HasGain     bool
	Wavenote    string

	loadData func() ([]float64, error)
}

// Data reads the trace. Lazy on purpose, traces dominate the file size.
func (s *Series) Data() ([]float64, error) {
	if s.loadData == nil {
		return nil, errors.Errorf("series '%s' has no trace source", s.Name)
	}
	return s.loadData()
}

// NewSeries builds a detached series with an in-memory trace, for synthetic
// sweeps in tests and tooling.
func NewSeries(name string, kind SeriesKind, description string, rate, gain float64, wavenote string, trace []float64) *Series {
	return &Series{
		Name:        name,
		Kind:        kind,
		Description: description,
		Rate:        rate,
		HasRate:     rate != 0,
		Gain:        gain,
		HasGain:     gain != 0,
		Wavenote:    wavenote,
		loadData:    func() ([]float64, error) { return trace, nil },
	}
}

func (f *File) seriesIn(group string, kind SeriesKind) ([]*Series, error) {
	names, err := groupMembers(f.h5, group)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot list %s series", kind)
	}

	notes, err := f.wavenotes(kind, names)
	if err != nil {
		return nil, err
	}

	result := make([]*Series, 0, len(names))
	for _, name := range names {
		s, err := f.loadSeries(group, name, kind)
		if err != nil {
			return nil, err
		}
		s.Wavenote = notes[name]
		result = append(result, s)
	}
	return result, nil
}

func (f *File) loadSeries(group, name string, kind SeriesKind) (*Series, error) {
	seriesPath := path.Join(group, name)
	grp, err := f.h5.OpenGroup(seriesPath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open series '%s'", seriesPath)
	}
	defer grp.Close()

	dataPath := path.Join(seriesPath, "data")
	s := &Series{
		Name: name,
		Kind: kind,
		loadData: func() ([]float64, error) {
			return readFloatSlice(f.h5, dataPath)
		},
	}
	s.Description, _ = readStringAttr(grp, "description")
	if rate, ok := readFloatAttrAt(f, path.Join(seriesPath, "starting_time"), "rate"); ok {
		s.Rate = rate
		s.HasRate = true
	}
	if gain, err := readFloatDataset(f.h5, path.Join(seriesPath, "gain")); err == nil {
		s.Gain = gain
		s.HasGain = true
	}
	return s, nil
}

func readFloatAttrAt(f *File, dsetPath, attrName string) (float64, bool) {
	dset, err := f.h5.OpenDataset(dsetPath)
	if err != nil {
		return 0, false
	}
	defer dset.Close()
	return readFloatAttr(dset, attrName)
}

var sweepNumberRe = regexp.MustCompile(`(\d+)$`)

// sweepNumber extracts the trailing sweep number of a series name such as
// "ccs__IDdepol__42". Names without one sort last.
func sweepNumber(name string) (int, bool) {
	m := sweepNumberRe.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// sortBySweep orders series names by their sweep number, names without a
// number after those with one, alphabetically within each class.
func sortBySweep(names []string) []string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.SliceStable(sorted, func(i, j int) bool {
		ni, oki := sweepNumber(sorted[i])
		nj, okj := sweepNumber(sorted[j])
		switch {
		case oki && okj && ni != nj:
			return ni < nj
		case oki != okj:
			return oki
		default:
			return sorted[i] < sorted[j]
		}
	})
	return sorted
}
