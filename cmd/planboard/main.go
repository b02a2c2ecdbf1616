package main

import (
	"os"
	"strings"

	"planboard/internal/cli"
	"planboard/internal/store"
)

// showCommand maps an entity id to the command that shows it ("boards show").
func showCommand(s string) (string, bool) {
	kind, ok := store.KindForID(strings.TrimSpace(s))
	if !ok {
		return "", false
	}
	return cli.CollectionName(kind), true
}

// rewriteDirectLookupArgs turns `planboard <entity-id>` into `planboard <kind>s show <id>`.
// Cobra treats the first non-flag token as a subcommand, so the rewrite happens before
// parsing, and persistent flags before the id are skipped.
func rewriteDirectLookupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--data-dir":   true,
		"--user":       true,
		"--format":     true,
		"--log-level":  true,
		"--log-format": true,
	}

	insert := func(i int, coll string) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, coll, "show")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		switch {
		case a == "":
			continue
		case a == "--":
			if i+1 < len(argv) {
				if coll, ok := showCommand(argv[i+1]); ok {
					return insert(i+1, coll)
				}
			}
			return argv
		case strings.HasPrefix(a, "-"):
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if coll, ok := showCommand(a); ok {
			return insert(i, coll)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteDirectLookupArgs(os.Args)

	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
