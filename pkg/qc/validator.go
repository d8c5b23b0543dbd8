package qc

import (
	"context"
	"fmt"
	"path/filepath"

	"emperror.dev/errors"
	"github.com/nwb-archive/gonwb/pkg/checksum"
	"github.com/nwb-archive/gonwb/pkg/nwb"
	"github.com/nwb-archive/gonwb/pkg/tarfs"
	"github.com/rs/zerolog"
)

// Validator runs the QC checks of one NWB file against its IGOR archive.
type Validator struct {
	nwbPath string
	tarPath string
	file    *nwb.File
	archive *tarfs.FS
	digests []checksum.DigestAlgorithm
	logger  zerolog.Logger
}

// New opens the NWB file and loads the archive index.
func New(nwbPath, tarPath string, digests []checksum.DigestAlgorithm, logger zerolog.Logger) (*Validator, error) {
	file, err := nwb.Open(nwbPath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open '%s'", nwbPath)
	}
	archive, err := tarfs.New(tarPath)
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrapf(err, "cannot open archive '%s'", tarPath)
	}
	return &Validator{
		nwbPath: nwbPath,
		tarPath: tarPath,
		file:    file,
		archive: archive,
		digests: digests,
		logger:  logger,
	}, nil
}

func (v *Validator) Close() error {
	return errors.Wrap(v.file.Close(), "cannot close validator")
}

// FileID returns the NWB identifier, falling back to the file stem.
func (v *Validator) FileID() string {
	id, err := v.file.Identifier()
	if err != nil || id == "" {
		base := filepath.Base(v.nwbPath)
		return base[:len(base)-len(filepath.Ext(base))]
	}
	return id
}

// Experimenter returns the experimenter recorded in the file, empty when
// the field is missing.
func (v *Validator) Experimenter() string {
	value, err := v.file.Field("experimenter")
	if err != nil {
		return ""
	}
	return value
}

// VerifyMetadata checks the required file-level metadata fields.
func (v *Validator) VerifyMetadata(ctx context.Context) (map[string]bool, error) {
	results := map[string]bool{}
	for _, field := range nwb.RequiredMetadata {
		present := v.file.HasField(field)
		results[field] = present
		if !present {
			qctx := fmt.Sprintf("%s/metadata", v.FileID())
			if err := AddFailure(ctx, C010, qctx, "field '%s' missing or empty", field); err != nil {
				return nil, err
			}
		}
	}
	return results, nil
}

// ValidateDatasets runs the per-sweep checks over all acquisition and
// stimulus series.
func (v *Validator) ValidateDatasets(ctx context.Context) (map[string]map[string]DatasetResult, error) {
	acquisitions, err := v.file.Acquisitions()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load acquisitions")
	}
	stimuli, err := v.file.Stimuli()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load stimuli")
	}

	results := map[string]map[string]DatasetResult{
		string(nwb.KindAcquisition): {},
		string(nwb.KindStimulus):    {},
	}
	for _, series := range acquisitions {
		if err := v.validateSeries(ctx, series, results[string(nwb.KindAcquisition)]); err != nil {
			return nil, err
		}
	}
	for _, series := range stimuli {
		if err := v.validateSeries(ctx, series, results[string(nwb.KindStimulus)]); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (v *Validator) validateSeries(ctx context.Context, series *nwb.Series, section map[string]DatasetResult) error {
	if _, exists := section[series.Name]; exists {
		// duplicate names would make results overwrite each other
		return errors.Errorf("duplicate dataset name '%s' in section '%s'", series.Name, series.Kind)
	}
	qctx := fmt.Sprintf("%s/%s/%s", v.FileID(), series.Kind, series.Name)
	v.logger.Debug().Str("series", series.Name).Str("kind", string(series.Kind)).Msg("validating sweep")

	dv, err := newDatasetValidator(series, v.archive, qctx)
	if err != nil {
		code := S002
		if errors.Is(err, errMemberMissing) {
			code = S003
		}
		if aerr := AddFailure(ctx, code, qctx, "%v", err); aerr != nil {
			return aerr
		}
		v.logger.Warn().Err(err).Str("series", series.Name).Msg("skipping sweep checks")
		section[series.Name] = DatasetResult{}
		return nil
	}

	var result DatasetResult
	if result.Data, err = dv.validateSignal(ctx); err != nil {
		return errors.Wrapf(err, "signal validation of '%s'", series.Name)
	}
	if result.MetadataVerification, err = dv.verifyMetadata(ctx); err != nil {
		return errors.Wrapf(err, "metadata verification of '%s'", series.Name)
	}
	if result.MetadataValidation, err = dv.validateMetadata(ctx); err != nil {
		return errors.Wrapf(err, "metadata validation of '%s'", series.Name)
	}
	if result.AdditionalTests, err = dv.additionalTests(ctx); err != nil {
		return errors.Wrapf(err, "additional tests of '%s'", series.Name)
	}
	section[series.Name] = result
	return nil
}

// Fixity computes the configured digests over the NWB file and the archive.
func (v *Validator) Fixity() (map[string]map[string]string, error) {
	if len(v.digests) == 0 {
		return nil, nil
	}
	result := map[string]map[string]string{}
	for key, path := range map[string]string{"nwb": v.nwbPath, "igor": v.tarPath} {
		digests, err := checksum.DigestFile(path, v.digests)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot digest '%s'", path)
		}
		stringed := make(map[string]string, len(digests))
		for alg, digest := range digests {
			stringed[string(alg)] = digest
		}
		result[key] = stringed
	}
	return result, nil
}

// Run executes the whole QC of the file and assembles the FileResult.
func (v *Validator) Run(ctx context.Context) (FileResult, error) {
	var fr FileResult
	var err error
	if fr.Metadata, err = v.VerifyMetadata(ctx); err != nil {
		return fr, err
	}
	if fr.Datasets, err = v.ValidateDatasets(ctx); err != nil {
		return fr, err
	}
	if fr.Fixity, err = v.Fixity(); err != nil {
		return fr, err
	}
	return fr, nil
}
