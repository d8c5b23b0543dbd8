package nwb

import (
	"emperror.dev/errors"
	"gonum.org/v1/hdf5"
)

// RequiredMetadata lists the file-level fields a converted NWB file has to
// carry. The order is the report order.
var RequiredMetadata = []string{
	"experiment_description",
	"file_create_date",
	"identifier",
	"session_description",
	"session_start_time",
	"timestamps_reference_time",
	"experimenter",
	"institution",
	"lab",
	"slices",
}

// fieldPaths maps the field names to their location in the NWB 2 layout.
var fieldPaths = map[string]string{
	"identifier":                "/identifier",
	"session_description":       "/session_description",
	"session_start_time":        "/session_start_time",
	"file_create_date":          "/file_create_date",
	"timestamps_reference_time": "/timestamps_reference_time",
	"experiment_description":    "/general/experiment_description",
	"experimenter":              "/general/experimenter",
	"institution":               "/general/institution",
	"lab":                       "/general/lab",
	"slices":                    "/general/slices",
}

const (
	acquisitionGroup = "/acquisition"
	stimulusGroup    = "/stimulus/presentation"
	icephysTable     = "/general/intracellular_ephys/intracellular_recordings"
)

// File is a read-only handle on an NWB v2 container.
type File struct {
	path string
	h5   *hdf5.File
}

func Open(path string) (*File, error) {
	h5file, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open nwb file '%s'", path)
	}
	return &File{path: path, h5: h5file}, nil
}

func (f *File) Close() error {
	if f.h5 == nil {
		return nil
	}
	if err := f.h5.Close(); err != nil {
		return errors.Wrapf(err, "cannot close nwb file '%s'", f.path)
	}
	f.h5 = nil
	return nil
}

func (f *File) Path() string {
	return f.path
}

// Identifier returns the NWB file id.
func (f *File) Identifier() (string, error) {
	id, err := readStringDataset(f.h5, fieldPaths["identifier"])
	if err != nil {
		return "", errors.Wrap(err, "cannot read identifier")
	}
	return id, nil
}

// Field returns the string value of a file-level metadata field.
func (f *File) Field(name string) (string, error) {
	path, ok := fieldPaths[name]
	if !ok {
		return "", errors.Errorf("unknown metadata field '%s'", name)
	}
	value, err := readStringDataset(f.h5, path)
	if err != nil {
		return "", errors.Wrapf(err, "cannot read field '%s'", name)
	}
	return value, nil
}

// HasField reports whether a file-level metadata field is present and
// non-empty. Unknown field names report false.
func (f *File) HasField(name string) bool {
	path, ok := fieldPaths[name]
	if !ok {
		return false
	}
	value, err := readStringDataset(f.h5, path)
	if err != nil {
		// session_start_time and friends may be stored non-string;
		// existence of the dataset is enough then.
		if dset, derr := f.h5.OpenDataset(path); derr == nil {
			dset.Close()
			return true
		}
		return false
	}
	return value != ""
}

// Acquisitions returns the recorded response sweeps.
func (f *File) Acquisitions() ([]*Series, error) {
	return f.seriesIn(acquisitionGroup, KindAcquisition)
}

// Stimuli returns the presented stimulus sweeps.
func (f *File) Stimuli() ([]*Series, error) {
	return f.seriesIn(stimulusGroup, KindStimulus)
}
