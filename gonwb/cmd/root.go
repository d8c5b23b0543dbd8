package cmd

import (
	"fmt"
	"os"
	"strings"

	"emperror.dev/errors"
	"github.com/nwb-archive/gonwb/config"
	"github.com/nwb-archive/gonwb/version"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// all persistent flags of all modules go here
var persistentFlagConfigFile string

var persistentFlagLogfile string
var persistentFlagLoglevel string

var conf *config.GonwbConfig
var logger zerolog.Logger

// exitCode is set by commands that found failed checks.
var exitCode int

var rootCmd = &cobra.Command{
	Use:   "gonwb",
	Short: "gonwb checks NWB files converted from IGOR acquisition data",
	Long: fmt.Sprintf(`A quality control tool for NWB containers converted from IGOR binary waves.
It compares signals and metadata of the converted file against the archived
source waves and writes machine readable results and human readable reports.
Version %s`, version.Version),
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func getFlagString(cmd *cobra.Command, flag string) string {
	str, err := cmd.Flags().GetString(flag)
	if err != nil {
		_ = cmd.Help()
		cobra.CheckErr(errors.Errorf("cannot get flag %s: %v", flag, err))
	}
	return str
}

func getFlagInt(cmd *cobra.Command, flag string) int {
	i, err := cmd.Flags().GetInt(flag)
	if err != nil {
		_ = cmd.Help()
		cobra.CheckErr(errors.Errorf("cannot get flag %s: %v", flag, err))
	}
	return i
}

func getFlagStringSlice(cmd *cobra.Command, flag string) []string {
	sl, err := cmd.Flags().GetStringSlice(flag)
	if err != nil {
		_ = cmd.Help()
		cobra.CheckErr(errors.Errorf("cannot get flag %s: %v", flag, err))
	}
	return sl
}

func initConfig() {
	// load config file
	if persistentFlagConfigFile != "" {
		data, err := os.ReadFile(persistentFlagConfigFile)
		if err != nil {
			_ = rootCmd.Help()
			fmt.Fprintf(os.Stderr, "error reading config file %s: %v\n", persistentFlagConfigFile, err)
			os.Exit(1)
		}
		conf, err = config.LoadGonwbConfig(string(data))
		if err != nil {
			_ = rootCmd.Help()
			fmt.Fprintf(os.Stderr, "error loading config file %s: %v\n", persistentFlagConfigFile, err)
			os.Exit(1)
		}
	} else {
		var err error
		conf, err = config.LoadGonwbConfig(config.DefaultConfig)
		if err != nil {
			_ = rootCmd.Help()
			fmt.Fprintf(os.Stderr, "error loading default config: %v\n", err)
			os.Exit(1)
		}
	}

	// overwrite config file with command line data
	if persistentFlagLogfile != "" {
		conf.Log.File = persistentFlagLogfile
	}
	if persistentFlagLoglevel != "" {
		conf.Log.Level = persistentFlagLoglevel
	}

	logger = createLogger(conf.Log)
}

func createLogger(cfg config.LogConfig) zerolog.Logger {
	var out = os.Stderr
	if cfg.File != "" {
		fp, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot open log file %s: %v\n", cfg.File, err)
			os.Exit(1)
		}
		out = fp
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.ErrorLevel
	}
	var l zerolog.Logger
	if cfg.Pretty && cfg.File == "" {
		l = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	} else {
		l = zerolog.New(out).With().Timestamp().Logger()
	}
	return l.Level(level)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&persistentFlagConfigFile, "config", "", "config file (default is the embedded configuration)")
	rootCmd.PersistentFlags().StringVar(&persistentFlagLogfile, "log-file", "", "log output file (default is stderr)")
	rootCmd.PersistentFlags().StringVar(&persistentFlagLoglevel, "log-level", "", "log level (trace|debug|info|warn|error)")

	initValidate()
	initBatch()
	initReport()
	initVersion()

	rootCmd.AddCommand(validateCmd, batchCmd, reportCmd, versionCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
