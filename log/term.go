package log

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether w is attached to an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// TerminalHandler returns a handler writing to w in terminal format, using
// colors only when w is an interactive terminal.
func TerminalHandler(w io.Writer, lvl Lvl) Handler {
	return LvlFilterHandler(lvl, StreamHandler(w, TerminalFormat(IsTerminal(w))))
}
