package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/google/uuid"
	"github.com/nwb-archive/gonwb/pkg/checksum"
	"github.com/nwb-archive/gonwb/pkg/qc"
	"github.com/nwb-archive/gonwb/pkg/tarfs"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Runner validates a batch of NWB files concurrently. A single broken file
// never aborts the batch, its failure is recorded in the result instead.
type Runner struct {
	Parallel     int
	Digests      []checksum.DigestAlgorithm
	Experimenter string
	Tool         string
	Version      string
	Logger       zerolog.Logger
}

// Run validates all entries and returns the assembled result set plus the
// combined failure status of the run.
func (r *Runner) Run(ctx context.Context, entries []Entry) (*qc.ResultSet, *qc.Status, error) {
	parallel := r.Parallel
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}

	rs := &qc.ResultSet{
		RunID:        uuid.NewString(),
		Experimenter: r.Experimenter,
		Tool:         r.Tool,
		Version:      r.Version,
		CreatedAt:    time.Now().UTC(),
		Files:        map[string]qc.FileResult{},
	}
	status := &qc.Status{}

	var mu sync.Mutex
	store := func(id string, fr qc.FileResult, fileStatus *qc.Status, experimenter string) {
		mu.Lock()
		defer mu.Unlock()
		if _, exists := rs.Files[id]; exists {
			// two entries resolved to the same identifier, keep both visible
			id = fmt.Sprintf("%s (%d)", id, len(rs.Files))
		}
		rs.Files[id] = fr
		if fileStatus != nil {
			status.Failures = append(status.Failures, fileStatus.Failures...)
		}
		if rs.Experimenter == "" && experimenter != "" {
			rs.Experimenter = experimenter
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for _, entry := range entries {
		entry := entry
		g.Go(func() error {
			id, fr, fileStatus, experimenter := r.runOne(gctx, entry)
			store(id, fr, fileStatus, experimenter)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, errors.Wrap(err, "batch aborted")
	}
	status.Compact()
	return rs, status, nil
}

// runOne validates a single entry. Panics in a worker are contained and
// reported as a file failure.
func (r *Runner) runOne(ctx context.Context, entry Entry) (id string, fr qc.FileResult, fileStatus *qc.Status, experimenter string) {
	id = fileStem(entry.NWB)

	defer func() {
		if rec := recover(); rec != nil {
			r.Logger.Error().Str("nwb", entry.NWB).Interface("panic", rec).Msg("validation panicked")
			fr = qc.FileResult{Failure: fmt.Sprintf("validation panicked: %v", rec)}
			fileStatus = nil
		}
	}()

	vctx := qc.NewContextValidation(ctx)
	fileStatus, _ = qc.GetStatus(vctx)

	tarBase := entry.Tar
	if tarBase == "" {
		tarBase = DefaultTar(entry.NWB)
	}
	tarPath, err := tarfs.FindTar(tarBase)
	if err != nil {
		r.Logger.Warn().Str("nwb", entry.NWB).Str("tar", tarBase).Msg("igor archive missing, skipping file")
		_ = qc.AddFailure(vctx, qc.S004, id, "%v", err)
		fr = qc.FileResult{Failure: fmt.Sprintf("igor archive missing: %v", err)}
		return id, fr, fileStatus, ""
	}

	validator, err := qc.New(entry.NWB, tarPath, r.Digests, r.Logger)
	if err != nil {
		r.Logger.Warn().Err(err).Str("nwb", entry.NWB).Msg("cannot open file, skipping")
		fr = qc.FileResult{Failure: err.Error()}
		return id, fr, fileStatus, ""
	}
	defer validator.Close()

	id = validator.FileID()
	r.Logger.Info().Str("file", id).Str("tar", tarPath).Msg("validating")

	fr, err = validator.Run(vctx)
	if err != nil {
		r.Logger.Warn().Err(err).Str("file", id).Msg("validation failed")
		fr.Failure = err.Error()
		return id, fr, fileStatus, validator.Experimenter()
	}
	r.Logger.Info().Str("file", id).
		Int("datasets", fr.CountDatasets()).
		Int("failed_checks", fr.FailureCount()).
		Msg("validated")
	return id, fr, fileStatus, validator.Experimenter()
}

func fileStem(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
