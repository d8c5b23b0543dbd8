package cmd

import (
	"fmt"
	"time"

	"github.com/nwb-archive/gonwb/pkg/qc"
	"github.com/rs/zerolog"
)

func startTimer() *timer {
	t := &timer{}
	t.Start()
	return t
}

type timer struct {
	start time.Time
}

func (t *timer) Start() {
	t.start = time.Now()
}

func (t *timer) String() string {
	delta := time.Since(t.start)
	return delta.String()
}

// showStatus lists the collected check failures grouped by context.
func showStatus(status *qc.Status, logger zerolog.Logger) {
	status.Compact()
	contextString := ""
	for _, failure := range status.Failures {
		if failure.Context != contextString {
			logger.Info().Msgf("[%s]", failure.Context)
			contextString = failure.Context
		}
		logger.Info().Msgf("#%s - %s [%s]", failure.Code, failure.Name, failure.Detail)
	}
	if errs := status.ErrorCount(); errs > 0 {
		logger.Error().Msg(fmt.Sprintf("%d failed checks found", errs))
		exitCode = 1
	} else {
		logger.Info().Msg("no failed checks found")
	}
}
