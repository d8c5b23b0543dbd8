package qc

import (
	"fmt"
	"sort"
	"time"
)

// DatasetResult holds the boolean check results of one sweep. The maps stay
// nil for sweeps that could not be checked, so all fields are omitempty to
// keep the serialized form within the result schema.
type DatasetResult struct {
	Data                 map[string]bool `json:"data,omitempty"`
	MetadataVerification map[string]bool `json:"metadata_verification,omitempty"`
	MetadataValidation   map[string]bool `json:"metadata_validation,omitempty"`
	AdditionalTests      map[string]bool `json:"additional_tests,omitempty"`
}

// FileResult holds all results of one NWB file.
type FileResult struct {
	Metadata map[string]bool                     `json:"metadata,omitempty"`
	Datasets map[string]map[string]DatasetResult `json:"datasets,omitempty"`
	Fixity   map[string]map[string]string        `json:"fixity,omitempty"`
	Failure  string                              `json:"failure,omitempty"`
}

// ResultSet is the persisted outcome of a QC run.
type ResultSet struct {
	RunID        string                `json:"run_id"`
	Experimenter string                `json:"experimenter"`
	Tool         string                `json:"tool"`
	Version      string                `json:"version"`
	CreatedAt    time.Time             `json:"created_at"`
	Files        map[string]FileResult `json:"files"`
}

// FlattenFailures walks the nested result maps of a file and returns the
// concatenated key paths of all checks that came out false, one
// "a/b/c failed." line each, sorted.
func FlattenFailures(fr FileResult) []string {
	var failed []string

	for field, ok := range fr.Metadata {
		if !ok {
			failed = append(failed, fmt.Sprintf("metadata/%s failed.", field))
		}
	}

	appendSection := func(prefix string, results map[string]bool) {
		for name, ok := range results {
			if !ok {
				failed = append(failed, fmt.Sprintf("%s/%s failed.", prefix, name))
			}
		}
	}
	for section, datasets := range fr.Datasets {
		for dsName, dr := range datasets {
			prefix := fmt.Sprintf("datasets/%s/%s", section, dsName)
			appendSection(prefix+"/data", dr.Data)
			appendSection(prefix+"/metadata_verification", dr.MetadataVerification)
			appendSection(prefix+"/metadata_validation", dr.MetadataValidation)
			appendSection(prefix+"/additional_tests", dr.AdditionalTests)
		}
	}

	sort.Strings(failed)
	return failed
}

// CountDatasets returns the number of sweeps covered by the result.
func (fr FileResult) CountDatasets() int {
	var n int
	for _, datasets := range fr.Datasets {
		n += len(datasets)
	}
	return n
}

// FailureCount returns the number of failed checks in the result.
func (fr FileResult) FailureCount() int {
	return len(FlattenFailures(fr))
}
