package domain

import (
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ClasspathVar is the environment variable a classpath is exported through.
const ClasspathVar = "CLASSPATH"

// Invocation describes one external program run as an argument vector.
// It is never interpreted by a shell.
type Invocation struct {
	Program string
	Args    []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env overrides entries of the inherited process environment.
	Env map[string]string
	// Classpath entries are joined with the OS list separator into CLASSPATH.
	Classpath []string
}

// Argv returns the full argument vector, program first.
func (inv *Invocation) Argv() []string {
	return append([]string{inv.Program}, inv.Args...)
}

// String renders the argument vector for logs, quoting arguments that
// contain whitespace or quotes.
func (inv *Invocation) String() string {
	argv := inv.Argv()
	parts := make([]string, 0, len(argv))
	for _, a := range argv {
		if a == "" || strings.ContainsAny(a, " \t\n\"'") {
			a = strconv.Quote(a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Environ merges the invocation's overrides and classpath into base, which
// is a list of KEY=VALUE pairs such as os.Environ(). Later keys win.
func (inv *Invocation) Environ(base []string) []string {
	overrides := maps.Clone(inv.Env)
	if overrides == nil {
		overrides = make(map[string]string)
	}
	if len(inv.Classpath) > 0 {
		overrides[ClasspathVar] = strings.Join(inv.Classpath, string(os.PathListSeparator))
	}

	env := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, replaced := overrides[key]; replaced {
			continue
		}
		env = append(env, kv)
	}
	for _, key := range slices.Sorted(maps.Keys(overrides)) {
		env = append(env, key+"="+overrides[key])
	}
	return env
}

// CommandResult is the outcome of a finished command.
type CommandResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}
