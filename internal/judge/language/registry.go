// Package language maps a language identifier to the commands and limits
// needed to compile and run code written in it. Adding a language is a
// configuration change only; no other package branches on language identity.
package language

import (
	"math"
	"strings"
	"sync"

	"github.com/google/shlex"

	apperr "algolab/pkg/errors"
)

// Spec describes how to compile and run one language.
type Spec struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	SourceFile     string   `yaml:"sourceFile"`
	BinaryFile     string   `yaml:"binaryFile"`
	CompileEnabled bool     `yaml:"compileEnabled"`
	CompileCmdTpl  string   `yaml:"compileCmdTpl"`
	RunCmdTpl      string   `yaml:"runCmdTpl"`
	Env            []string `yaml:"env"`

	// Per-test defaults, overridable per problem.
	DefaultTimeLimitMs   int64 `yaml:"defaultTimeLimitMs"`
	DefaultMemoryLimitMB int64 `yaml:"defaultMemoryLimitMb"`

	// Multipliers compensate for runtime overhead of managed languages.
	// Zero means 1.0.
	TimeMultiplier   float64 `yaml:"timeMultiplier"`
	MemoryMultiplier float64 `yaml:"memoryMultiplier"`
}

// ScaleTimeLimit applies the language time multiplier to a limit in ms.
func (s *Spec) ScaleTimeLimit(ms int64) int64 {
	return scaleLimit(ms, s.TimeMultiplier)
}

// ScaleMemoryLimit applies the language memory multiplier to a limit in MB.
func (s *Spec) ScaleMemoryLimit(mb int64) int64 {
	return scaleLimit(mb, s.MemoryMultiplier)
}

func scaleLimit(value int64, multiplier float64) int64 {
	if value <= 0 {
		return 0
	}
	if multiplier <= 0 {
		return value
	}
	return int64(math.Ceil(float64(value) * multiplier))
}

// CompileCommand renders the compile command for a working directory.
func (s *Spec) CompileCommand(workDir string) ([]string, error) {
	if !s.CompileEnabled {
		return nil, nil
	}
	return buildCommand(s.CompileCmdTpl, s, workDir)
}

// RunCommand renders the run command for a working directory.
func (s *Spec) RunCommand(workDir string) ([]string, error) {
	return buildCommand(s.RunCmdTpl, s, workDir)
}

func buildCommand(tpl string, lang *Spec, workDir string) ([]string, error) {
	if strings.TrimSpace(tpl) == "" {
		return nil, apperr.New(apperr.InvalidParams).WithMessage("command template is required")
	}
	expanded := tpl
	expanded = strings.ReplaceAll(expanded, "{src}", join(workDir, lang.SourceFile))
	expanded = strings.ReplaceAll(expanded, "{bin}", join(workDir, lang.BinaryFile))
	expanded = strings.ReplaceAll(expanded, "{dir}", workDir)
	fields, err := shlex.Split(expanded)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.InvalidParams, "parse command template failed")
	}
	if len(fields) == 0 {
		return nil, apperr.New(apperr.InvalidParams).WithMessage("command is empty after expansion")
	}
	return fields, nil
}

func join(dir, file string) string {
	if file == "" {
		return dir
	}
	return strings.TrimRight(dir, "/") + "/" + file
}

// Registry resolves language identifiers to their specs.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]*Spec
}

// NewRegistry builds a registry from configured specs. With no specs it
// falls back to the built-in defaults.
func NewRegistry(specs []Spec) (*Registry, error) {
	if len(specs) == 0 {
		specs = DefaultSpecs()
	}
	r := &Registry{specs: make(map[string]*Spec, len(specs))}
	for i := range specs {
		s := specs[i]
		if err := validateSpec(&s); err != nil {
			return nil, err
		}
		if s.DefaultTimeLimitMs <= 0 {
			s.DefaultTimeLimitMs = 2000
		}
		if s.DefaultMemoryLimitMB <= 0 {
			s.DefaultMemoryLimitMB = 256
		}
		r.specs[s.ID] = &s
	}
	return r, nil
}

func validateSpec(s *Spec) error {
	if s.ID == "" {
		return apperr.New(apperr.InvalidParams).WithMessage("language id is required")
	}
	if s.SourceFile == "" {
		return apperr.Newf(apperr.InvalidParams, "language %s: source file is required", s.ID)
	}
	if strings.TrimSpace(s.RunCmdTpl) == "" {
		return apperr.Newf(apperr.InvalidParams, "language %s: run command template is required", s.ID)
	}
	if s.CompileEnabled && strings.TrimSpace(s.CompileCmdTpl) == "" {
		return apperr.Newf(apperr.InvalidParams, "language %s: compile command template is required", s.ID)
	}
	return nil
}

// Resolve returns the spec for id, or LanguageNotSupported. Unsupported
// identifiers fail here, before any sandbox is allocated.
func (r *Registry) Resolve(id string) (*Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[id]
	if !ok {
		return nil, apperr.Newf(apperr.LanguageNotSupported, "language %q is not supported", id)
	}
	return s, nil
}

// IDs lists the supported language identifiers.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.specs))
	for id := range r.specs {
		ids = append(ids, id)
	}
	return ids
}

// DefaultSpecs returns the built-in language set.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			ID:                   "python",
			Name:                 "Python 3",
			SourceFile:           "main.py",
			RunCmdTpl:            "python3 {src}",
			Env:                  []string{"PYTHONIOENCODING=utf-8", "PYTHONDONTWRITEBYTECODE=1"},
			DefaultTimeLimitMs:   2000,
			DefaultMemoryLimitMB: 256,
			TimeMultiplier:       3,
			MemoryMultiplier:     2,
		},
		{
			ID:                   "cpp",
			Name:                 "C++ 17",
			SourceFile:           "main.cpp",
			BinaryFile:           "main",
			CompileEnabled:       true,
			CompileCmdTpl:        "g++ -O2 -std=c++17 -o {bin} {src}",
			RunCmdTpl:            "{bin}",
			DefaultTimeLimitMs:   1000,
			DefaultMemoryLimitMB: 256,
		},
		{
			ID:                   "java",
			Name:                 "Java 17",
			SourceFile:           "Main.java",
			BinaryFile:           "Main.class",
			CompileEnabled:       true,
			CompileCmdTpl:        "javac -d {dir} {src}",
			RunCmdTpl:            "java -XX:+UseSerialGC -cp {dir} Main",
			DefaultTimeLimitMs:   2000,
			DefaultMemoryLimitMB: 512,
			TimeMultiplier:       2,
			MemoryMultiplier:     2,
		},
		{
			ID:                   "javascript",
			Name:                 "Node.js",
			SourceFile:           "main.js",
			RunCmdTpl:            "node {src}",
			DefaultTimeLimitMs:   2000,
			DefaultMemoryLimitMB: 256,
			TimeMultiplier:       3,
			MemoryMultiplier:     2,
		},
	}
}
