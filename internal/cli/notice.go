package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// colorNotice highlights operator-facing notices so they stand apart from the
// raw scanner pass-through.
type colorNotice struct{}

func (colorNotice) Noticef(w io.Writer, format string, a ...any) {
	color.New(color.FgYellow, color.Bold).Fprintf(w, format, a...)
}

// stdinConfirmer reads one line from standard input per prompt. Anything
// other than a case-insensitive "n" counts as yes, including empty input and
// a closed stdin.
type stdinConfirmer struct{}

func (stdinConfirmer) Confirm(prompt string) bool {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		color.New(color.FgCyan).Fprint(os.Stderr, prompt)
	} else {
		fmt.Fprint(os.Stderr, prompt)
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return true
	}
	return !strings.EqualFold(strings.TrimSpace(line), "n")
}
