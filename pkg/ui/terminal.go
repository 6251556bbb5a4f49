package ui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ASCII logo for the application
const ASCIILogo = `
    ╔════════════════════════════════════════════════════════╗
    ║  ██████╗ ████████╗███████╗ ██████╗██████╗  █████╗ ██████╗ ║
    ║  ██╔══██╗╚══██╔══╝██╔════╝██╔════╝██╔══██╗██╔══██╗██╔══██╗║
    ║  ██████╔╝   ██║   ███████╗██║     ██████╔╝███████║██████╔╝║
    ║  ██╔═══╝    ██║   ╚════██║██║     ██╔══██╗██╔══██║██╔═══╝ ║
    ║  ██║        ██║   ███████║╚██████╗██║  ██║██║  ██║██║     ║
    ║  ╚═╝        ╚═╝   ╚══════╝ ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝     ║
    ║          PATREON VIDEO URL EXTRACTION UTILITY             ║
    ╚════════════════════════════════════════════════════════╝
`

// Out is where all terminal output goes
var Out io.Writer = os.Stdout

var quiet bool

// SetQuietMode suppresses everything except errors
func SetQuietMode(q bool) {
	quiet = q
}

// IsQuietMode reports whether quiet mode is on
func IsQuietMode() bool {
	return quiet
}

// IsInteractive reports whether stdin and stdout are both terminals
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if os.Getenv("NO_COLOR") != "" {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	if quiet {
		return
	}
	fmt.Fprint(Out, Cyan(ASCIILogo))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Out, Red("✗ "+msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Out, Red("✗ "+msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if quiet {
		return
	}
	fmt.Fprintln(Out, Green("✓ "+msg))
}

// PrintInfo prints an info message in cyan
func PrintInfo(label string, value string) {
	if quiet {
		return
	}
	fmt.Fprintf(Out, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if quiet {
		return
	}
	if len(args) > 0 {
		fmt.Fprintln(Out, Yellow("⚠ "+msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Out, Yellow("⚠ "+msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	if quiet {
		return
	}
	fmt.Fprintln(Out, Magenta(msg))
}

// PrintRule prints a section header between horizontal rules
func PrintRule(title string) {
	if quiet {
		return
	}
	line := "════════════════════════════════════════════════════════════"
	fmt.Fprintf(Out, "\n%s\n%s\n%s\n", Dim(line), title, Dim(line))
}
