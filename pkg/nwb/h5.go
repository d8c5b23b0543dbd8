package nwb

import (
	"strings"

	"emperror.dev/errors"
	"gonum.org/v1/hdf5"
)

// attrOwner is satisfied by hdf5 groups and datasets.
type attrOwner interface {
	OpenAttribute(name string) (*hdf5.Attribute, error)
}

func readStringAttr(owner attrOwner, name string) (string, bool) {
	attr, err := owner.OpenAttribute(name)
	if err != nil {
		return "", false
	}
	defer attr.Close()
	var value string
	if err := attr.Read(&value, hdf5.T_GO_STRING); err != nil {
		return "", false
	}
	return decodeString(value), true
}

func readFloatAttr(owner attrOwner, name string) (float64, bool) {
	attr, err := owner.OpenAttribute(name)
	if err != nil {
		return 0, false
	}
	defer attr.Close()
	var value float64
	if err := attr.Read(&value, hdf5.T_NATIVE_DOUBLE); err != nil {
		return 0, false
	}
	return value, true
}

// readStringDataset reads a scalar or 1-element string dataset below f.
func readStringDataset(f *hdf5.File, path string) (string, error) {
	dset, err := f.OpenDataset(path)
	if err != nil {
		return "", errors.Wrapf(err, "cannot open dataset '%s'", path)
	}
	defer dset.Close()

	var value string
	if err := dset.Read(&value); err != nil {
		values, aerr := readStringSlice(dset)
		if aerr != nil || len(values) == 0 {
			return "", errors.Wrapf(err, "cannot read string dataset '%s'", path)
		}
		return values[0], nil
	}
	return decodeString(value), nil
}

func readStringSlice(dset *hdf5.Dataset) ([]string, error) {
	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, errors.Wrap(err, "cannot read dataspace extent")
	}
	n := 1
	for _, d := range dims {
		n *= int(d)
	}
	values := make([]string, n)
	if n == 0 {
		return values, nil
	}
	if err := dset.Read(&values); err != nil {
		return nil, errors.Wrap(err, "cannot read string dataset")
	}
	for i, v := range values {
		values[i] = decodeString(v)
	}
	return values, nil
}

func readFloatDataset(f *hdf5.File, path string) (float64, error) {
	dset, err := f.OpenDataset(path)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot open dataset '%s'", path)
	}
	defer dset.Close()
	var value float64
	if err := dset.Read(&value); err != nil {
		return 0, errors.Wrapf(err, "cannot read dataset '%s'", path)
	}
	return value, nil
}

func readFloatSlice(f *hdf5.File, path string) ([]float64, error) {
	dset, err := f.OpenDataset(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open dataset '%s'", path)
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read extent of '%s'", path)
	}
	n := 1
	for _, d := range dims {
		n *= int(d)
	}
	values := make([]float64, n)
	if n == 0 {
		return values, nil
	}
	if err := dset.Read(&values); err != nil {
		return nil, errors.Wrapf(err, "cannot read dataset '%s'", path)
	}
	return values, nil
}

func groupMembers(f *hdf5.File, path string) ([]string, error) {
	grp, err := f.OpenGroup(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open group '%s'", path)
	}
	defer grp.Close()

	num, err := grp.NumObjects()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot count members of '%s'", path)
	}
	names := make([]string, 0, num)
	for i := uint(0); i < num; i++ {
		name, err := grp.ObjectNameByIndex(i)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot read member %d of '%s'", i, path)
		}
		names = append(names, name)
	}
	return names, nil
}

// decodeString mirrors the lenient byte-string decoding of the conversion
// pipeline: trailing NULs are dropped, invalid UTF-8 is kept as-is.
func decodeString(s string) string {
	return strings.TrimRight(s, "\x00")
}
