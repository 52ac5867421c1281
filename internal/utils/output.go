package utils

import (
	"io"
	"os"

	"github.com/brizzai/netcall/internal/logger"
	"github.com/mattn/go-isatty"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"
)

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// WriteJSON writes a JSON document indented, and colored when color is set.
// Anything that is not valid JSON is written unchanged.
func WriteJSON(w io.Writer, data []byte, color bool) error {
	if !gjson.ValidBytes(data) {
		return WriteBody(w, data)
	}
	out := pretty.Pretty(data)
	if color {
		out = pretty.Color(out, nil)
	}
	if _, err := w.Write(out); err != nil {
		logger.Error("Failed to write JSON body", zap.Error(err))
		return err
	}
	return nil
}

// WriteBody writes data followed by a newline when it lacks one
func WriteBody(w io.Writer, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if _, err := w.Write(data); err != nil {
		logger.Error("Failed to write body", zap.Error(err))
		return err
	}
	if data[len(data)-1] != '\n' {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}
