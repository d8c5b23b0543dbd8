package qc

import (
	"context"
	"math"
	"testing"

	"emperror.dev/errors"
	"github.com/go-test/deep"
)

func TestAllClose(t *testing.T) {
	if !allClose([]float64{1, 2, 3}, []float64{1, 2, 3}) {
		t.Error("identical traces must compare equal")
	}
	if allClose([]float64{1, 2, 3}, []float64{1, 2}) {
		t.Error("length mismatch must fail")
	}
	if allClose([]float64{1, 2 + 1e-12}, []float64{1, 2}) {
		t.Error("comparison is exact, no tolerance")
	}
	if !allClose([]float64{math.NaN()}, []float64{math.NaN()}) {
		t.Error("NaN must compare equal to NaN")
	}
	if allClose([]float64{math.NaN()}, []float64{0}) {
		t.Error("NaN must not compare equal to a number")
	}
	if !allClose(nil, []float64{}) {
		t.Error("empty traces are equal")
	}
}

func TestIsClose(t *testing.T) {
	if !isClose(10000, 10000.05) {
		t.Error("rate within relative tolerance must pass")
	}
	if isClose(10000, 10001) {
		t.Error("rate outside relative tolerance must fail")
	}
	if !isClose(0, 1e-9) {
		t.Error("absolute tolerance must cover near-zero rates")
	}
	if isClose(math.NaN(), math.NaN()) {
		t.Error("NaN rates never compare close")
	}
	if !isClose(math.Inf(1), math.Inf(1)) {
		t.Error("equal infinities compare close")
	}
}

func TestFlattenFailures(t *testing.T) {
	fr := FileResult{
		Metadata: map[string]bool{
			"identifier":   true,
			"experimenter": false,
		},
		Datasets: map[string]map[string]DatasetResult{
			"acquisition": {
				"ccs__IDrest__03": {
					Data:                 map[string]bool{"data_equal": false},
					MetadataValidation:   map[string]bool{"wavenotes_equal": true},
					MetadataVerification: map[string]bool{"gain_present": false},
					AdditionalTests:      map[string]bool{"igor_file_present": true},
				},
			},
			"stimulus": {
				"stim__03": {
					Data: map[string]bool{"data_equal": true},
				},
			},
		},
	}

	want := []string{
		"datasets/acquisition/ccs__IDrest__03/data/data_equal failed.",
		"datasets/acquisition/ccs__IDrest__03/metadata_verification/gain_present failed.",
		"metadata/experimenter failed.",
	}
	if diff := deep.Equal(FlattenFailures(fr), want); diff != nil {
		t.Error(diff)
	}
	if fr.FailureCount() != 3 {
		t.Errorf("expected 3 failures, got %d", fr.FailureCount())
	}
	if fr.CountDatasets() != 2 {
		t.Errorf("expected 2 datasets, got %d", fr.CountDatasets())
	}
}

func TestStatusContext(t *testing.T) {
	ctx := NewContextValidation(context.Background())

	if err := AddFailure(ctx, V001, "file1/acquisition/sweep", "rate %g vs %g", 10000.0, 9000.0); err != nil {
		t.Fatal(err)
	}
	if err := AddFailure(ctx, V001, "file1/acquisition/sweep", "rate %g vs %g", 10000.0, 9000.0); err != nil {
		t.Fatal(err)
	}
	if err := AddFailure(ctx, A001, "file1/acquisition/sweep", "fallback match"); err != nil {
		t.Fatal(err)
	}

	status, err := GetStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(status.Failures) != 3 {
		t.Fatalf("expected 3 failures, got %d", len(status.Failures))
	}
	status.Compact()
	if len(status.Failures) != 2 {
		t.Fatalf("expected 2 failures after compact, got %d", len(status.Failures))
	}
	if status.ErrorCount() != 1 {
		t.Errorf("assists must not count as errors, got %d", status.ErrorCount())
	}
	if status.Failures[0].Name != "sampling_rates_close" {
		t.Errorf("unexpected check name '%s'", status.Failures[0].Name)
	}
}

func TestStatusMissingFromContext(t *testing.T) {
	if _, err := GetStatus(context.Background()); err == nil {
		t.Error("expected error for plain context")
	}
	if err := AddFailure(context.Background(), V001, "ctx", "detail"); err == nil {
		t.Error("expected error for plain context")
	}
}

func TestAddFailureUnknownCode(t *testing.T) {
	ctx := NewContextValidation(context.Background())
	err := AddFailure(ctx, CheckCode("X999"), "ctx", "detail")
	if !errors.Is(err, ErrUnregisteredCheck) {
		t.Errorf("expected ErrUnregisteredCheck, got %v", err)
	}
}

func TestGuardRegistered(t *testing.T) {
	if err := guardRegistered(map[string]bool{"data_equal": true}, dataChecks); err != nil {
		t.Error(err)
	}
	err := guardRegistered(map[string]bool{"made_up_check": true}, dataChecks)
	if !errors.Is(err, ErrUnregisteredCheck) {
		t.Errorf("expected ErrUnregisteredCheck, got %v", err)
	}
}

func TestChecksOrdered(t *testing.T) {
	checks := Checks()
	if len(checks) != len(checkTable) {
		t.Fatalf("expected %d checks, got %d", len(checkTable), len(checks))
	}
	for i := 1; i < len(checks); i++ {
		if checks[i-1].Code >= checks[i].Code {
			t.Errorf("checks out of order: %s before %s", checks[i-1].Code, checks[i].Code)
		}
	}
}
