package qc

import (
	"context"
	"strings"

	"emperror.dev/errors"
	"github.com/nwb-archive/gonwb/pkg/igor"
	"github.com/nwb-archive/gonwb/pkg/nwb"
	"github.com/nwb-archive/gonwb/pkg/tarfs"
)

// datasetValidator runs the per-sweep checks of one NWB series against its
// IGOR source wave.
type datasetValidator struct {
	series *nwb.Series
	wave   *igor.Wave
	exact  bool
	qctx   string
}

// newDatasetValidator resolves and parses the IGOR wave recorded in the
// series description.
func newDatasetValidator(series *nwb.Series, archive *tarfs.FS, qctx string) (*datasetValidator, error) {
	member, exact, ok := archive.Resolve(series.Description)
	if !ok {
		return nil, errors.Wrapf(errMemberMissing, "'%s' (from description '%s')", series.Name, series.Description)
	}
	wave, err := igor.ReadFS(archive, member)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read igor wave for '%s'", series.Name)
	}
	return &datasetValidator{
		series: series,
		wave:   wave,
		exact:  exact,
		qctx:   qctx,
	}, nil
}

var errMemberMissing = errors.New("igor wave not found in archive")

// validateSignal checks the sample-exact signal round trip.
func (dv *datasetValidator) validateSignal(ctx context.Context) (map[string]bool, error) {
	trace, err := dv.series.Data()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read nwb trace of '%s'", dv.series.Name)
	}
	equal := allClose(trace, dv.wave.Data)
	if !equal {
		if err := AddFailure(ctx, V010, dv.qctx, "nwb trace (%d samples) differs from igor wave '%s' (%d samples)",
			len(trace), dv.wave.Name, len(dv.wave.Data)); err != nil {
			return nil, err
		}
	}
	results := map[string]bool{"data_equal": equal}
	return results, guardRegistered(results, dataChecks)
}

// validateMetadata checks converted metadata values against the wave header.
func (dv *datasetValidator) validateMetadata(ctx context.Context) (map[string]bool, error) {
	results := map[string]bool{}

	results["sampling_rates_close"] = isClose(dv.series.Rate, dv.wave.SamplingRate())
	if !results["sampling_rates_close"] {
		if err := AddFailure(ctx, V001, dv.qctx, "nwb rate %g vs igor rate %g", dv.series.Rate, dv.wave.SamplingRate()); err != nil {
			return nil, err
		}
	}

	results["igor_header_correct"] = dv.wave.Name != "" && strings.Contains(dv.series.Description, dv.wave.Name)
	if !results["igor_header_correct"] {
		if err := AddFailure(ctx, V002, dv.qctx, "wave name '%s' not in description '%s'", dv.wave.Name, dv.series.Description); err != nil {
			return nil, err
		}
	}

	results["wavenotes_equal"] = dv.series.Wavenote == dv.wave.Note
	if !results["wavenotes_equal"] {
		if err := AddFailure(ctx, V003, dv.qctx, "nwb wavenote (%d bytes) differs from igor note (%d bytes)",
			len(dv.series.Wavenote), len(dv.wave.Note)); err != nil {
			return nil, err
		}
	}

	return results, guardRegistered(results, validationChecks)
}

// verifyMetadata checks that converted sweep metadata is complete.
func (dv *datasetValidator) verifyMetadata(ctx context.Context) (map[string]bool, error) {
	results := map[string]bool{}

	// false iff the igor wave carries a note the conversion lost
	wavenotesPresent := true
	if dv.series.Wavenote == "" && dv.wave.Note != "" {
		wavenotesPresent = false
	}
	results["wavenotes_present"] = wavenotesPresent
	if !wavenotesPresent {
		if err := AddFailure(ctx, C001, dv.qctx, "igor note (%d bytes) lost in conversion", len(dv.wave.Note)); err != nil {
			return nil, err
		}
	}

	results["description_present"] = dv.series.Description != ""
	if !results["description_present"] {
		if err := AddFailure(ctx, C002, dv.qctx, "empty description"); err != nil {
			return nil, err
		}
	}

	results["sampling_rate_present"] = dv.series.HasRate && dv.series.Rate != 0
	if !results["sampling_rate_present"] {
		if err := AddFailure(ctx, C003, dv.qctx, "missing sampling rate"); err != nil {
			return nil, err
		}
	}

	results["gain_present"] = dv.series.HasGain && dv.series.Gain != 0
	if !results["gain_present"] {
		if err := AddFailure(ctx, C004, dv.qctx, "missing gain"); err != nil {
			return nil, err
		}
	}

	return results, guardRegistered(results, verificationChecks)
}

// additionalTests are assists for the conversion lab, not hard requirements.
func (dv *datasetValidator) additionalTests(ctx context.Context) (map[string]bool, error) {
	results := map[string]bool{"igor_file_present": dv.exact}
	if !dv.exact {
		if err := AddFailure(ctx, A001, dv.qctx, "wave found only after dropping host path segments of '%s'", dv.series.Description); err != nil {
			return nil, err
		}
	}
	return results, guardRegistered(results, additionalChecks)
}
