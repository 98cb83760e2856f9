// Package logger provides centralized logging for the application.
// File: logger/logger.go
package logger

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// ------------------- global loggers -------------------

// four logger levels accessible throughout the application
var (
	Info  *log.Logger
	Warn  *log.Logger
	Error *log.Logger
	Debug *log.Logger
)

const flags = log.Ldate | log.Ltime | log.Lshortfile

// ------------------- logger initialization -------------------

// InitLogger (re)configures the four loggers. Output always goes to stdout.
// When logDir is non-empty it also:
// - ensures logDir exists
// - appends to a timestamped log file inside it
func InitLogger(logDir string) error {
	var out io.Writer = os.Stdout

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0700); err != nil {
			return err
		}
		logFileName := filepath.Join(logDir, time.Now().Format("2006-01-02_15-04-05")+".log")
		file, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) // #nosec
		if err != nil {
			return err
		}
		out = io.MultiWriter(os.Stdout, file)
	}

	setOutput(out)
	return nil
}

// SetOutput points every logger at w. Tests use it to capture or silence output.
func SetOutput(w io.Writer) {
	setOutput(w)
}

func setOutput(w io.Writer) {
	Info = log.New(w, "INFO: ", flags)
	Warn = log.New(w, "WARN: ", flags)
	Error = log.New(w, "ERROR: ", flags)
	Debug = log.New(w, "DEBUG: ", flags)
}

// SetLogLevel discards Debug output in production and keeps it everywhere else.
func SetLogLevel(env string) {
	if env == "production" {
		Debug.SetOutput(io.Discard)
	}
}

// init gives the package usable stdout loggers before main configures files.
func init() {
	setOutput(os.Stdout)
}
