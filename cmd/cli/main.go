// logwindow - Log Window Check
//
// logwindow counts the lines of a log file and its rotated siblings that
// match a pattern within the last few minutes, and reports the result as a
// monitoring plugin status line and exit code.
package main

import (
	"os"

	"github.com/ccollicutt/logwindow/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
