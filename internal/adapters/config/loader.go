// Package config loads the buildfile into a task registry and reads the
// user's settings.
package config

import (
	"bytes"
	"errors"
	"io"
	"maps"
	"os"
	"os/user"
	"path/filepath"
	"regexp"
	"slices"

	"go.trai.ch/bild/internal/core/domain"
	"go.trai.ch/bild/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Built-in variable names available to ${...} expansion.
const (
	VarVersion  = "version"
	VarUser     = "user"
	VarJarCache = "jarcache"
)

var varPattern = regexp.MustCompile(`\$\{([^}]*)\}`)

// Loader implements ports.ConfigLoader. The tasks it registers run their
// steps through the injected runner, fetcher and file system.
type Loader struct {
	Logger   ports.Logger
	Runner   ports.CommandRunner
	Fetcher  ports.ArtifactFetcher
	FS       ports.FileSystem
	Settings *Settings

	// LookupEnv resolves variables not defined by the buildfile. Defaults
	// to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// CurrentUser returns the ${user} value.
	CurrentUser func() string
}

// NewLoader creates a new Loader. Nil settings mean DefaultSettings.
func NewLoader(
	logger ports.Logger,
	runner ports.CommandRunner,
	fetcher ports.ArtifactFetcher,
	fsys ports.FileSystem,
	settings *Settings,
) *Loader {
	if settings == nil {
		settings = DefaultSettings()
	}
	return &Loader{
		Logger:      logger,
		Runner:      runner,
		Fetcher:     fetcher,
		FS:          fsys,
		Settings:    settings,
		LookupEnv:   os.LookupEnv,
		CurrentUser: currentUser,
	}
}

// Load reads the buildfile at path and returns a sealed registry holding
// every declared task plus the implicit default task.
func (l *Loader) Load(path string) (*domain.Registry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the user's buildfile
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrConfigReadFailed, err), "path", path)
	}
	if err := duplicateTask(data); err != nil {
		return nil, zerr.With(err, "path", path)
	}

	var bf Buildfile
	if err := unmarshalStrict(data, &bf); err != nil {
		return nil, zerr.With(errors.Join(domain.ErrConfigParseFailed, err), "path", path)
	}

	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrConfigReadFailed, err), "path", path)
	}

	vars, err := l.variables(&bf)
	if err != nil {
		return nil, err
	}
	c := &compiler{loader: l, root: root, vars: vars}

	reg := domain.NewRegistry()
	for _, name := range slices.Sorted(maps.Keys(bf.Tasks)) {
		dto := bf.Tasks[name]
		if dto == nil {
			dto = &TaskDTO{}
		}

		for _, dep := range dto.Deps {
			if _, ok := bf.Tasks[dep]; !ok {
				return nil, domain.Tag(domain.ErrUnknownTask, "task", dep, "required_by", name)
			}
		}

		steps, err := c.compileSteps(name, dto.Steps)
		if err != nil {
			return nil, err
		}

		task := domain.NewTask(name, c.action(name, steps), dto.Deps...)
		task.Description = dto.Description
		if err := reg.Add(task); err != nil {
			return nil, err
		}
	}

	for _, dep := range bf.Default {
		if _, ok := bf.Tasks[dep]; !ok {
			return nil, domain.Tag(domain.ErrUnknownTask, "task", dep, "required_by", domain.DefaultTask)
		}
	}
	if err := reg.EnsureDefault(bf.Default...); err != nil {
		return nil, err
	}

	reg.Seal()
	return reg, nil
}

// variables resolves the buildfile's vars. Their values may reference
// built-ins and the environment but not each other.
func (l *Loader) variables(bf *Buildfile) (map[string]string, error) {
	builtins := map[string]string{
		VarVersion:  bf.Version,
		VarUser:     l.CurrentUser(),
		VarJarCache: l.Settings.JarCache,
	}
	base := expander{lookup: func(name string) (string, bool) {
		if v, ok := builtins[name]; ok {
			return v, true
		}
		return l.LookupEnv(name)
	}}

	vars := make(map[string]string, len(builtins)+len(bf.Vars))
	maps.Copy(vars, builtins)
	for _, name := range slices.Sorted(maps.Keys(bf.Vars)) {
		v, err := base.expand(bf.Vars[name])
		if err != nil {
			return nil, zerr.With(err, "var", name)
		}
		vars[name] = v
	}
	return vars, nil
}

// unmarshalStrict decodes YAML into target, rejecting unknown fields. An
// empty document decodes to the zero value.
func unmarshalStrict[T any](data []byte, target *T) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// duplicateTask reports a task declared twice under tasks. Decoding into a
// map rejects repeated keys as a syntax error, so they are found on the node
// tree first. Malformed documents are left to the strict decode.
func duplicateTask(data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil || len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "tasks" || root.Content[i+1].Kind != yaml.MappingNode {
			continue
		}
		tasks := root.Content[i+1].Content
		seen := make(map[string]int, len(tasks)/2)
		for j := 0; j+1 < len(tasks); j += 2 {
			key := tasks[j]
			if first, ok := seen[key.Value]; ok {
				return domain.Tag(domain.ErrDuplicateTask, "task", key.Value, "line", key.Line, "first_line", first)
			}
			seen[key.Value] = key.Line
		}
	}
	return nil
}

// expander replaces ${name} references.
type expander struct {
	lookup func(string) (string, bool)
}

func (e expander) expand(s string) (string, error) {
	var missing string
	out := varPattern.ReplaceAllStringFunc(s, func(m string) string {
		name := m[2 : len(m)-1]
		if v, ok := e.lookup(name); ok {
			return v
		}
		if missing == "" {
			missing = name
		}
		return m
	})
	if missing != "" {
		return "", domain.Tag(domain.ErrInvalidStep, "undefined_variable", missing)
	}
	return out, nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
