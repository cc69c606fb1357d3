package main

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// setupLog discards log output unless LECTERN_LOGFILE points somewhere.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)
	if file := os.Getenv("LECTERN_LOGFILE"); file != "" {
		f, err := tea.LogToFileWith(file, "lectern", log.Default())
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		log.SetLevel(log.DebugLevel)
		return f.Close, nil
	}
	return func() error { return nil }, nil
}
