package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nwb-archive/gonwb/config"
	"github.com/nwb-archive/gonwb/pkg/batch"
	"github.com/nwb-archive/gonwb/pkg/qc"
	"github.com/nwb-archive/gonwb/pkg/report"
	"github.com/nwb-archive/gonwb/version"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch [map file or directory]",
	Short: "validates a batch of nwb files",
	Long: `Validates a batch of NWB files against their IGOR archives. The argument
is either a map file (headerless CSV with nwb,tar per line, or a YAML
mapping of nwb paths to archive paths) or a directory whose *.nwb files are
validated against the archives next to them. Results are written as a
schema validated json file and rendered as the configured report.`,
	Example: "gonwb batch ./conversion_batch.csv",
	Args:    cobra.ExactArgs(1),
	Run:     runBatch,
}

func initBatch() {
	batchCmd.Flags().IntP("parallel", "p", 0, "number of parallel workers (default is one per cpu)")
	batchCmd.Flags().StringP("output-dir", "o", "", "directory for the results file")
	batchCmd.Flags().String("postfix", "", "postfix of the results file name")
	batchCmd.Flags().StringSlice("digest", nil, "digest algorithms for the fixity sections")
}

func doBatchConf(cmd *cobra.Command) {
	if i := getFlagInt(cmd, "parallel"); i > 0 {
		conf.Batch.Parallel = i
	}
	if str := getFlagString(cmd, "output-dir"); str != "" {
		conf.Batch.OutputDir = str
	}
	if str := getFlagString(cmd, "postfix"); str != "" {
		conf.Batch.Postfix = str
	}
	if sl := getFlagStringSlice(cmd, "digest"); len(sl) > 0 {
		conf.Batch.Digests = sl
	}
}

func runBatch(cmd *cobra.Command, args []string) {
	mapPath := filepath.ToSlash(args[0])

	t := startTimer()
	defer func() { logger.Info().Msgf("Duration: %s", t.String()) }()

	doBatchConf(cmd)

	var entries []batch.Entry
	var err error
	if fi, serr := os.Stat(mapPath); serr == nil && fi.IsDir() {
		entries, err = batch.ScanDir(mapPath)
	} else {
		entries, err = batch.LoadMapFile(mapPath)
	}
	if err != nil {
		logger.Error().Msgf("cannot load batch entries: %v", err)
		return
	}
	logger.Info().Msgf("validating %d files from '%s'", len(entries), mapPath)

	runner := &batch.Runner{
		Parallel: conf.Batch.Parallel,
		Digests:  config.DigestAlgorithms(conf.Batch.Digests),
		Tool:     "gonwb",
		Version:  version.Version,
		Logger:   logger,
	}
	rs, status, err := runner.Run(context.Background(), entries)
	if err != nil {
		logger.Error().Msgf("batch failed: %v", err)
		return
	}
	showStatus(status, logger)

	output := filepath.Join(conf.Batch.OutputDir, fmt.Sprintf("qc_results_%s.json", conf.Batch.Postfix))
	if err := qc.SaveResults(output, rs); err != nil {
		logger.Error().Msgf("cannot save results: %v", err)
		return
	}
	logger.Info().Msgf("results of run %s written to '%s'", rs.RunID, output)

	reportPath, err := report.Save(conf.Report.OutputDir, conf.Report.Format, conf.Batch.Postfix, rs)
	if err != nil {
		logger.Error().Msgf("cannot write report: %v", err)
		return
	}
	logger.Info().Msgf("report written to '%s'", reportPath)
}
