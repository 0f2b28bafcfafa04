package main

import (
	"os"
	"strings"

	"dashgrid/internal/cli"
	"dashgrid/internal/grid"
)

func isCellKey(s string) bool {
	_, _, _, ok := grid.SplitKey(s)
	return ok
}

// rewriteDirectAssignArgs turns `dashgrid <from> <to> <activity>` into
// `dashgrid timebox assign <from> <to> <activity>`. Cobra treats the first
// positional token as a subcommand, so argv is rewritten before parsing.
// Persistent flags may come first.
func rewriteDirectAssignArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--user":      true,
		"--backend":   true,
		"--data-dir":  true,
		"--format":    true,
		"--log-level": true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isCellKey(argv[i+1]) {
				return insertAssign(argv, i+1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if isCellKey(a) {
			return insertAssign(argv, i)
		}
		return argv
	}
	return argv
}

func insertAssign(argv []string, at int) []string {
	out := make([]string, 0, len(argv)+2)
	out = append(out, argv[:at]...)
	out = append(out, "timebox", "assign")
	out = append(out, argv[at:]...)
	return out
}

func main() {
	os.Args = rewriteDirectAssignArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
