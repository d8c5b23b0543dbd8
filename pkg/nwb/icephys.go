package nwb

import (
	"path"

	"emperror.dev/errors"
)

// wavenotes reads the wavenote_original column of the intracellular
// recordings table for one sweep section and pairs the rows with the given
// series names.
//
// The converter writes one row per sweep with object references into the
// acquisition and stimulus groups. The HDF5 binding used here cannot
// dereference object references, so rows are paired positionally with the
// series names ordered by sweep number, which is the order the converter
// emits. A missing table or column yields empty notes.
func (f *File) wavenotes(kind SeriesKind, names []string) (map[string]string, error) {
	notes := map[string]string{}
	for _, name := range names {
		notes[name] = ""
	}

	sub := "responses"
	if kind == KindStimulus {
		sub = "stimuli"
	}
	colPath := path.Join(icephysTable, sub, "wavenote_original")
	dset, err := f.h5.OpenDataset(colPath)
	if err != nil {
		// converted before the wavenote column existed
		return notes, nil
	}
	defer dset.Close()

	column, err := readStringSlice(dset)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read wavenote column '%s'", colPath)
	}

	ordered := sortBySweep(names)
	for i, name := range ordered {
		if i >= len(column) {
			break
		}
		notes[name] = column[i]
	}
	return notes, nil
}
