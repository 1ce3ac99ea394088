package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.trai.ch/bild/internal/core/domain"
	"go.trai.ch/bild/internal/core/ports"
	"go.trai.ch/zerr"
)

// step is one compiled buildfile step.
type step struct {
	kind string
	exec func(ctx context.Context) error
	log  string
}

// compiler turns step DTOs into executable steps for one buildfile.
type compiler struct {
	loader *Loader
	root   string
	vars   map[string]string
}

// action runs the steps of task name in order and stops at the first failure.
func (c *compiler) action(name string, steps []step) domain.Action {
	if len(steps) == 0 {
		return nil
	}
	return func(ctx context.Context) error {
		for i, s := range steps {
			if s.exec != nil {
				if err := s.exec(ctx); err != nil {
					return zerr.With(err, "step", fmt.Sprintf("%d (%s)", i+1, s.kind))
				}
			}
			if s.log != "" {
				if c.loader.Logger != nil {
					c.loader.Logger.Info(s.log)
				}
				if err := ports.BuildLogFromContext(ctx).Record(name, s.log); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

func (c *compiler) compileSteps(task string, dtos []StepDTO) ([]step, error) {
	steps := make([]step, 0, len(dtos))
	for i := range dtos {
		s, err := c.compileStep(&dtos[i])
		if err != nil {
			return nil, zerr.With(zerr.With(err, "task", task), "step", i+1)
		}
		steps = append(steps, s)
	}
	return steps, nil
}

func (c *compiler) compileStep(dto *StepDTO) (step, error) {
	e := expander{lookup: c.lookup}

	logText, err := e.expand(dto.Log)
	if err != nil {
		return step{}, err
	}
	s := step{log: logText}

	kinds := stepKinds(dto)
	switch {
	case len(kinds) > 1:
		return step{}, domain.Tag(domain.ErrInvalidStep, "kinds", strings.Join(kinds, ", "))
	case len(kinds) == 0 && dto.Log == "":
		return step{}, domain.Tag(domain.ErrInvalidStep, "reason", "step has no action")
	case len(kinds) == 0:
		s.kind = "log"
		return s, nil
	}
	s.kind = kinds[0]

	if s.kind != "run" && (dto.Dir != "" || len(dto.Env) > 0 || len(dto.Classpath) > 0) {
		return step{}, domain.Tag(domain.ErrInvalidStep, "reason", "dir, env and classpath apply to run steps only")
	}

	switch s.kind {
	case "run":
		s.exec, err = c.compileRun(dto, e)
	case "fetch":
		s.exec, err = c.compileFetch(dto.Fetch, e)
	case "mkdir":
		s.exec, err = c.compilePathOp(dto.Mkdir, e, c.loader.FS.MakeDir)
	case "remove":
		s.exec, err = c.compilePathOp(dto.Remove, e, c.loader.FS.Remove)
	case "copy":
		s.exec, err = c.compileCopy(dto.Copy, e)
	case "write":
		s.exec, err = c.compileWrite(dto.Write, e)
	}
	if err != nil {
		return step{}, err
	}
	return s, nil
}

func stepKinds(dto *StepDTO) []string {
	var kinds []string
	if len(dto.Run) > 0 {
		kinds = append(kinds, "run")
	}
	if dto.Fetch != nil {
		kinds = append(kinds, "fetch")
	}
	if dto.Mkdir != "" {
		kinds = append(kinds, "mkdir")
	}
	if dto.Remove != "" {
		kinds = append(kinds, "remove")
	}
	if dto.Copy != nil {
		kinds = append(kinds, "copy")
	}
	if dto.Write != nil {
		kinds = append(kinds, "write")
	}
	return kinds
}

func (c *compiler) compileRun(dto *StepDTO, e expander) (func(context.Context) error, error) {
	argv, err := expandAll(e, dto.Run)
	if err != nil {
		return nil, err
	}
	if argv[0] == "" {
		return nil, domain.Tag(domain.ErrInvalidStep, "reason", "run has an empty program")
	}

	dir, err := e.expand(dto.Dir)
	if err != nil {
		return nil, err
	}

	env := make(map[string]string, len(dto.Env))
	for k, v := range dto.Env {
		if env[k], err = e.expand(v); err != nil {
			return nil, err
		}
	}

	classpath, err := expandAll(e, dto.Classpath)
	if err != nil {
		return nil, err
	}
	for i, entry := range classpath {
		classpath[i] = c.resolve(entry)
	}

	inv := &domain.Invocation{
		Program:   argv[0],
		Args:      argv[1:],
		Dir:       c.resolve(dir),
		Env:       env,
		Classpath: classpath,
	}
	if len(env) == 0 {
		inv.Env = nil
	}
	if len(classpath) == 0 {
		inv.Classpath = nil
	}

	return func(ctx context.Context) error {
		_, err := c.loader.Runner.Run(ctx, inv)
		return err
	}, nil
}

func (c *compiler) compileFetch(dto *FetchDTO, e expander) (func(context.Context) error, error) {
	url, err := e.expand(dto.URL)
	if err != nil {
		return nil, err
	}
	if url == "" {
		return nil, domain.Tag(domain.ErrInvalidStep, "reason", "fetch needs a url")
	}

	into := dto.Into
	if into == "" {
		into = "${" + VarJarCache + "}"
	}
	if into, err = e.expand(into); err != nil {
		return nil, err
	}
	dir := c.resolve(into)

	return func(ctx context.Context) error {
		_, err := c.loader.Fetcher.Fetch(ctx, url, dir)
		return err
	}, nil
}

func (c *compiler) compilePathOp(
	raw string,
	e expander,
	op func(ctx context.Context, path string) error,
) (func(context.Context) error, error) {
	path, err := e.expand(raw)
	if err != nil {
		return nil, err
	}
	path = c.resolve(path)
	return func(ctx context.Context) error {
		return op(ctx, path)
	}, nil
}

func (c *compiler) compileCopy(dto *CopyDTO, e expander) (func(context.Context) error, error) {
	if dto.From == "" || dto.To == "" {
		return nil, domain.Tag(domain.ErrInvalidStep, "reason", "copy needs from and to")
	}
	from, err := e.expand(dto.From)
	if err != nil {
		return nil, err
	}
	to, err := e.expand(dto.To)
	if err != nil {
		return nil, err
	}
	from, to = c.resolve(from), c.resolve(to)
	return func(ctx context.Context) error {
		return c.loader.FS.CopyTree(ctx, from, to)
	}, nil
}

func (c *compiler) compileWrite(dto *WriteDTO, e expander) (func(context.Context) error, error) {
	if dto.Path == "" {
		return nil, domain.Tag(domain.ErrInvalidStep, "reason", "write needs a path")
	}
	path, err := e.expand(dto.Path)
	if err != nil {
		return nil, err
	}
	content, err := e.expand(dto.Content)
	if err != nil {
		return nil, err
	}
	path = c.resolve(path)
	return func(ctx context.Context) error {
		return c.loader.FS.WriteFile(ctx, path, content)
	}, nil
}

// lookup resolves a variable from the buildfile's vars and built-ins, then
// the environment.
func (c *compiler) lookup(name string) (string, bool) {
	if v, ok := c.vars[name]; ok {
		return v, true
	}
	return c.loader.LookupEnv(name)
}

// resolve makes path absolute relative to the buildfile's directory.
func (c *compiler) resolve(path string) string {
	path = ExpandHome(path)
	if path == "" {
		return c.root
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(c.root, path)
}

func expandAll(e expander, in []string) ([]string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		v, err := e.expand(s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
