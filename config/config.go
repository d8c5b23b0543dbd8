package config

import (
	_ "embed"
	"os"
	"runtime"
	"strings"

	"emperror.dev/errors"
	"github.com/BurntSushi/toml"
	"github.com/nwb-archive/gonwb/pkg/checksum"
)

//go:embed gonwb.toml
var DefaultConfig string

type ValidateConfig struct {
	Tar     string   `toml:"tar"`
	Digests []string `toml:"digests"`
}

type BatchConfig struct {
	Parallel  int      `toml:"parallel"`
	OutputDir string   `toml:"outputdir"`
	Postfix   string   `toml:"postfix"`
	Digests   []string `toml:"digests"`
}

type ReportConfig struct {
	Format    string `toml:"format"`
	OutputDir string `toml:"outputdir"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	File   string `toml:"file"`
	Pretty bool   `toml:"pretty"`
}

type GonwbConfig struct {
	Validate *ValidateConfig `toml:"Validate"`
	Batch    *BatchConfig    `toml:"Batch"`
	Report   *ReportConfig   `toml:"Report"`
	Log      LogConfig       `toml:"Log"`
	TempDir  string          `toml:"tempdir"`
}

var reportFormats = []string{"ascii", "markdown"}

func LoadGonwbConfig(data string) (*GonwbConfig, error) {
	var conf = &GonwbConfig{
		Validate: &ValidateConfig{
			Digests: []string{},
		},
		Batch: &BatchConfig{
			Parallel:  runtime.NumCPU(),
			OutputDir: ".",
			Postfix:   "results",
			Digests:   []string{},
		},
		Report: &ReportConfig{
			Format:    "ascii",
			OutputDir: ".",
		},
		Log: LogConfig{
			Level: "error",
		},
		TempDir: os.TempDir(),
	}

	if _, err := toml.Decode(data, conf); err != nil {
		return nil, errors.Wrap(err, "Error on loading config")
	}

	conf.Report.Format = strings.ToLower(conf.Report.Format)
	var found bool
	for _, f := range reportFormats {
		if conf.Report.Format == f {
			found = true
			break
		}
	}
	if !found {
		return nil, errors.Errorf("unknown report format '%s' please use %v", conf.Report.Format, reportFormats)
	}
	for _, digests := range [][]string{conf.Validate.Digests, conf.Batch.Digests} {
		for _, alg := range digests {
			if !checksum.HashExists(checksum.DigestAlgorithm(alg)) {
				return nil, errors.Errorf("unknown digest algorithm '%s' please use %v", alg, checksum.DigestNames)
			}
		}
	}
	if conf.Batch.Parallel < 1 {
		conf.Batch.Parallel = runtime.NumCPU()
	}
	return conf, nil
}

// DigestAlgorithms converts configured digest names into algorithms.
func DigestAlgorithms(names []string) []checksum.DigestAlgorithm {
	result := make([]checksum.DigestAlgorithm, 0, len(names))
	for _, name := range names {
		result = append(result, checksum.DigestAlgorithm(name))
	}
	return result
}
