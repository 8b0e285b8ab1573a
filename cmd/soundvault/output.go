package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"soundvault/internal/format"
)

var (
	outputFormatter format.Formatter = format.JSONFormatter{}
	stdout          io.Writer        = os.Stdout
)

func writeJSON(payload any) error {
	return outputFormatter.Write(stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(stdout, format, args...)
	return err
}

// writeRows prints a table on a terminal and tab-separated lines otherwise.
func writeRows(headers []string, rows [][]string, aligns []columnAlignment) error {
	if stdoutIsTerminal() {
		return writePlain("%s\n", renderTable(headers, rows, aligns))
	}
	for _, row := range rows {
		if err := writePlain("%s\n", strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return nil
}

func stdoutIsTerminal() bool {
	f, ok := stdout.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}
