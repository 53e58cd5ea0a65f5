package main

import (
	"os"
	"strings"

	"spacenav/internal/cli"
)

// siteShortcut returns the site id of an "@<id>" token.
func siteShortcut(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "@") || len(s) == 1 {
		return "", false
	}
	return s[1:], true
}

// rewriteSiteShortcutArgs turns `spacenav @<id>` into
// `spacenav spaces --site <id>`. Cobra treats the first positional token as a
// subcommand, so argv is rewritten before parsing. Persistent flags may come
// first; their values must not be mistaken for the shortcut.
func rewriteSiteShortcutArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--config":    true,
		"--api-url":   true,
		"--log-level": true,
		"--log-file":  true,
		"--format":    true,
	}

	rewrite := func(i int, id string) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, "spaces", "--site", id)
		out = append(out, argv[i+1:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) {
				if id, ok := siteShortcut(argv[i+1]); ok {
					out := make([]string, 0, len(argv)+2)
					out = append(out, argv[:i]...)
					out = append(out, "spaces", "--site", id)
					out = append(out, argv[i+2:]...)
					return out
				}
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if id, ok := siteShortcut(a); ok {
			return rewrite(i, id)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteSiteShortcutArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
