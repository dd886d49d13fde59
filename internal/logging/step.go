package logging

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StepFields carries the arguments recorded on a step's start event.
type StepFields map[string]string

// Step logs the start of a named operation and returns a func that logs its end.
//
//	done := logging.Step("imx.load", logging.StepFields{"filename": name})
//	err := work()
//	done(err)
func Step(name string, fields StepFields) func(error) {
	return StepWith(log.Logger, name, fields)
}

// StepWith is Step against an explicit logger.
func StepWith(logger zerolog.Logger, name string, fields StepFields) func(error) {
	start := time.Now()
	event := logger.Debug().Str("step", name).Str("stage", "start")
	for k, v := range fields {
		event = event.Str(k, v)
	}
	event.Msg("step")

	return func(err error) {
		end := logger.Info()
		if err != nil {
			end = logger.Error().Err(err)
		}
		end.
			Str("step", name).
			Str("stage", "stop").
			Dur("duration", time.Since(start)).
			Msg("step")
	}
}
