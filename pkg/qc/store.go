package qc

import (
	"encoding/json"
	"os"

	"emperror.dev/errors"
	"github.com/google/renameio/v2"
	"github.com/nwb-archive/gonwb/data/schemas"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

func validateResults(data []byte) error {
	schemaSrc, err := schemas.QCResultSchema()
	if err != nil {
		return errors.Wrap(err, "cannot load result schema")
	}
	compiled, err := jsonschema.CompileString("qcresult.schema.json", schemaSrc)
	if err != nil {
		return errors.Wrap(err, "cannot compile result schema")
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "invalid json")
	}
	if err := compiled.Validate(raw); err != nil {
		return errors.Wrap(err, "result schema violation")
	}
	return nil
}

// SaveResults writes the result set as pretty JSON, atomically. The output
// is validated against the result schema first, everything written here must
// load again. A crashed run must not leave a truncated results file behind.
func SaveResults(path string, rs *ResultSet) error {
	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return errors.Wrap(err, "cannot marshal results")
	}
	if err := validateResults(data); err != nil {
		return errors.Wrap(err, "refusing to write results")
	}
	data = append(data, '\n')
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "cannot write results to '%s'", path)
	}
	return nil
}

// LoadResults reads a persisted result set and validates it against the
// result schema before decoding.
func LoadResults(path string) (*ResultSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read results from '%s'", path)
	}
	if err := validateResults(data); err != nil {
		return nil, errors.Wrapf(err, "'%s' does not validate against the result schema", path)
	}
	var rs ResultSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, errors.Wrapf(err, "cannot decode results from '%s'", path)
	}
	return &rs, nil
}
