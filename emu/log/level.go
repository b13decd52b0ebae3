package log

import (
	"io"

	"gopkg.in/Sirupsen/logrus.v0"
)

// Level mirrors logrus levels, from most to least severe.
type Level uint32

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

func setBackendLevel(lvl Level) {
	logrus.SetLevel(logrus.Level(lvl))
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}
