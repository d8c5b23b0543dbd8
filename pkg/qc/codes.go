package qc

import (
	"emperror.dev/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// CheckCode identifies a QC check. V codes compare converted values against
// the IGOR source (validation), C codes test completeness of the converted
// metadata (verification), A codes are assists for the conversion lab,
// S codes are structural failures that abort a file.
type CheckCode string

const (
	V001 = CheckCode("V001")
	V002 = CheckCode("V002")
	V003 = CheckCode("V003")
	V010 = CheckCode("V010")
	C001 = CheckCode("C001")
	C002 = CheckCode("C002")
	C003 = CheckCode("C003")
	C004 = CheckCode("C004")
	C010 = CheckCode("C010")
	A001 = CheckCode("A001")
	S001 = CheckCode("S001")
	S002 = CheckCode("S002")
	S003 = CheckCode("S003")
	S004 = CheckCode("S004")
)

// Check describes one registered QC check.
type Check struct {
	Code        CheckCode
	Name        string
	Description string
}

var checkTable = map[CheckCode]*Check{
	V010: {V010, "data_equal", "signal in NWB equals the IGOR signal elementwise (NaN == NaN)"},
	V001: {V001, "sampling_rates_close", "NWB sampling rate matches 1/dx of the IGOR wave"},
	V002: {V002, "igor_header_correct", "IGOR wave name is contained in the NWB dataset description"},
	V003: {V003, "wavenotes_equal", "NWB wavenote equals the IGOR wave note"},
	C001: {C001, "wavenotes_present", "wavenote survived the conversion when the IGOR wave carried one"},
	C002: {C002, "description_present", "NWB dataset carries a description"},
	C003: {C003, "sampling_rate_present", "NWB dataset carries a sampling rate"},
	C004: {C004, "gain_present", "NWB dataset carries a gain"},
	C010: {C010, "required_metadata", "required file-level metadata field is present"},
	A001: {A001, "igor_file_present", "IGOR wave found in the archive at the recorded path"},
	S001: {S001, "duplicate_dataset", "two datasets share a name within a section"},
	S002: {S002, "igor_unreadable", "IGOR wave cannot be parsed"},
	S003: {S003, "igor_missing", "IGOR wave not found in the archive"},
	S004: {S004, "archive_missing", "IGOR archive for the NWB file not found"},
}

// Result name sets per dataset result section. Results may only carry these
// names, anything else is a programming error surfaced as
// ErrUnregisteredCheck.
var (
	dataChecks         = map[string]CheckCode{"data_equal": V010}
	validationChecks   = map[string]CheckCode{"sampling_rates_close": V001, "igor_header_correct": V002, "wavenotes_equal": V003}
	verificationChecks = map[string]CheckCode{"wavenotes_present": C001, "description_present": C002, "sampling_rate_present": C003, "gain_present": C004}
	additionalChecks   = map[string]CheckCode{"igor_file_present": A001}
)

var ErrUnregisteredCheck = errors.New("check is not part of the qc schema")

// GetCheck looks a check up by code.
func GetCheck(code CheckCode) (*Check, bool) {
	c, ok := checkTable[code]
	return c, ok
}

// Checks returns all registered checks ordered by code.
func Checks() []*Check {
	codes := maps.Keys(checkTable)
	slices.Sort(codes)
	result := make([]*Check, 0, len(codes))
	for _, code := range codes {
		result = append(result, checkTable[code])
	}
	return result
}

// guardRegistered rejects result maps carrying names outside the allowed
// set, the moral equivalent of the conversion schema guard.
func guardRegistered(results map[string]bool, allowed map[string]CheckCode) error {
	for name := range results {
		if _, ok := allowed[name]; !ok {
			return errors.Wrapf(ErrUnregisteredCheck, "'%s'", name)
		}
	}
	return nil
}
