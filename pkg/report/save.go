package report

import (
	"emperror.dev/errors"
	"github.com/nwb-archive/gonwb/pkg/qc"
)

// Supported report formats.
const (
	FormatAscii    = "ascii"
	FormatMarkdown = "markdown"
)

// Save renders rs in the given format into dir and returns the path of the
// written report. postfix is only used for the markdown file name.
func Save(dir, format, postfix string, rs *qc.ResultSet) (string, error) {
	switch format {
	case FormatAscii:
		return SaveAscii(dir, rs)
	case FormatMarkdown:
		return SaveMarkdown(dir, postfix, rs)
	default:
		return "", errors.Errorf("unknown report format '%s' (supported: %s, %s)", format, FormatAscii, FormatMarkdown)
	}
}
