package cmd

import (
	"path/filepath"
	"strings"

	"github.com/nwb-archive/gonwb/pkg/qc"
	"github.com/nwb-archive/gonwb/pkg/report"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:     "report [path to results json]",
	Short:   "renders a human readable report from a results file",
	Example: "gonwb report ./qc_results_results.json --format markdown",
	Args:    cobra.ExactArgs(1),
	Run:     runReport,
}

func initReport() {
	reportCmd.Flags().StringP("format", "f", "", "report format (ascii|markdown)")
	reportCmd.Flags().StringP("output-dir", "o", "", "directory for the report file")
	reportCmd.Flags().String("postfix", "", "postfix of the markdown report file name")
}

func doReportConf(cmd *cobra.Command) {
	if str := getFlagString(cmd, "format"); str != "" {
		conf.Report.Format = strings.ToLower(str)
	}
	if str := getFlagString(cmd, "output-dir"); str != "" {
		conf.Report.OutputDir = str
	}
}

func runReport(cmd *cobra.Command, args []string) {
	resultsPath := filepath.ToSlash(args[0])

	t := startTimer()
	defer func() { logger.Info().Msgf("Duration: %s", t.String()) }()

	doReportConf(cmd)

	rs, err := qc.LoadResults(resultsPath)
	if err != nil {
		logger.Error().Msgf("cannot load results: %v", err)
		return
	}

	postfix := getFlagString(cmd, "postfix")
	if postfix == "" {
		postfix = conf.Batch.Postfix
	}
	path, err := report.Save(conf.Report.OutputDir, conf.Report.Format, postfix, rs)
	if err != nil {
		logger.Error().Msgf("cannot write report: %v", err)
		exitCode = 1
		return
	}
	logger.Info().Msgf("report written to '%s'", path)
}
