package cmd

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/nwb-archive/gonwb/config"
	"github.com/nwb-archive/gonwb/pkg/qc"
	"github.com/nwb-archive/gonwb/pkg/tarfs"
	"github.com/nwb-archive/gonwb/version"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:     "validate [path to nwb file]",
	Aliases: []string{"check"},
	Short:   "validates a converted nwb file against its igor archive",
	Example: "gonwb validate ./170106_2A.nwb",
	Args:    cobra.ExactArgs(1),
	Run:     validate,
}

func initValidate() {
	validateCmd.Flags().StringP("tar", "t", "", "igor archive (default is the nwb path with .tar or .tgz extension)")
	validateCmd.Flags().StringSlice("digest", nil, "digest algorithms for the fixity section")
	validateCmd.Flags().StringP("output", "o", "", "write the validation result as json to this file")
}

func doValidateConf(cmd *cobra.Command) {
	if str := getFlagString(cmd, "tar"); str != "" {
		conf.Validate.Tar = str
	}
	if sl := getFlagStringSlice(cmd, "digest"); len(sl) > 0 {
		conf.Validate.Digests = sl
	}
}

func validate(cmd *cobra.Command, args []string) {
	nwbPath := filepath.ToSlash(args[0])

	t := startTimer()
	defer func() { logger.Info().Msgf("Duration: %s", t.String()) }()

	doValidateConf(cmd)

	logger.Info().Msgf("validating '%s'", nwbPath)

	tarBase := conf.Validate.Tar
	if tarBase == "" {
		tarBase = nwbPath[:len(nwbPath)-len(filepath.Ext(nwbPath))]
	}
	tarPath, err := tarfs.FindTar(tarBase)
	if err != nil {
		logger.Error().Msgf("cannot find igor archive: %v", err)
		return
	}

	validator, err := qc.New(nwbPath, tarPath, config.DigestAlgorithms(conf.Validate.Digests), logger)
	if err != nil {
		logger.Error().Msgf("cannot open '%s': %v", nwbPath, err)
		return
	}
	defer validator.Close()

	ctx := qc.NewContextValidation(context.Background())
	fr, err := validator.Run(ctx)
	if err != nil {
		logger.Error().Msgf("validation of '%s' failed: %v", nwbPath, err)
		return
	}

	status, err := qc.GetStatus(ctx)
	if err != nil {
		logger.Error().Msgf("cannot get validation status: %v", err)
		return
	}
	showStatus(status, logger)

	if output := getFlagString(cmd, "output"); output != "" {
		rs := &qc.ResultSet{
			RunID:        uuid.NewString(),
			Experimenter: validator.Experimenter(),
			Tool:         "gonwb",
			Version:      version.Version,
			CreatedAt:    time.Now().UTC(),
			Files:        map[string]qc.FileResult{validator.FileID(): fr},
		}
		if err := qc.SaveResults(output, rs); err != nil {
			logger.Error().Msgf("cannot save results: %v", err)
			return
		}
		logger.Info().Msgf("results written to '%s'", output)
	}
}
