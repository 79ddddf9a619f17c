package config

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// zap levels, LOG_LEVEL holds one of these
const (
	DEBUG_LEVEL = int(zapcore.DebugLevel)
	INFO_LEVEL  = int(zapcore.InfoLevel)
	WARN_LEVEL  = int(zapcore.WarnLevel)
	ERROR_LEVEL = int(zapcore.ErrorLevel)
	FATAL_LEVEL = int(zapcore.FatalLevel)
)

type Configuration struct {
	Level      int
	TimeFormat string
}

func (c Configuration) Validate() error {
	if c.Level < DEBUG_LEVEL || c.Level > FATAL_LEVEL {
		return fmt.Errorf("log level %d out of range [%d, %d]", c.Level, DEBUG_LEVEL, FATAL_LEVEL)
	}
	if c.TimeFormat == "" {
		return fmt.Errorf("log time format is empty")
	}
	return nil
}
