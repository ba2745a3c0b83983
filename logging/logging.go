// Package logging configures the structured, leveled logger every
// pipeline stage traces through.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logrus.Logger writing to stderr, at Debug level if
// verbose is set (gated by the CLI's --verbose flag) and Info
// otherwise.
func New(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.Out = os.Stderr
	log.Level = logrus.InfoLevel
	if verbose {
		log.Level = logrus.DebugLevel
	}
	return log
}
