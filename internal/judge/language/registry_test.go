package language

import (
	"reflect"
	"testing"

	apperr "algolab/pkg/errors"
)

func TestRegistryResolve(t *testing.T) {
	r, err := NewRegistry(nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	spec, err := r.Resolve("python")
	if err != nil {
		t.Fatalf("Resolve(python): %v", err)
	}
	if spec.SourceFile != "main.py" {
		t.Errorf("unexpected source file %q", spec.SourceFile)
	}
	if spec.CompileEnabled {
		t.Error("python should not have a compile step")
	}

	_, err = r.Resolve("brainfuck")
	if !apperr.Is(err, apperr.LanguageNotSupported) {
		t.Errorf("expected LanguageNotSupported, got %v", err)
	}
}

func TestRegistryValidation(t *testing.T) {
	cases := []struct {
		name string
		spec Spec
	}{
		{"missing id", Spec{SourceFile: "a.py", RunCmdTpl: "python3 {src}"}},
		{"missing source file", Spec{ID: "x", RunCmdTpl: "x {src}"}},
		{"missing run template", Spec{ID: "x", SourceFile: "a"}},
		{"compile enabled without template", Spec{ID: "x", SourceFile: "a", RunCmdTpl: "x", CompileEnabled: true}},
	}
	for _, tc := range cases {
		if _, err := NewRegistry([]Spec{tc.spec}); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestRunCommand(t *testing.T) {
	spec := &Spec{
		ID:         "python",
		SourceFile: "main.py",
		RunCmdTpl:  "python3 {src}",
	}
	cmd, err := spec.RunCommand("/tmp/work")
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	want := []string{"python3", "/tmp/work/main.py"}
	if !reflect.DeepEqual(cmd, want) {
		t.Errorf("RunCommand = %v, want %v", cmd, want)
	}
}

func TestCompileCommand(t *testing.T) {
	spec := &Spec{
		ID:             "cpp",
		SourceFile:     "main.cpp",
		BinaryFile:     "main",
		CompileEnabled: true,
		CompileCmdTpl:  "g++ -O2 -std=c++17 -o {bin} {src}",
		RunCmdTpl:      "{bin}",
	}
	cmd, err := spec.CompileCommand("/tmp/work")
	if err != nil {
		t.Fatalf("CompileCommand: %v", err)
	}
	want := []string{"g++", "-O2", "-std=c++17", "-o", "/tmp/work/main", "/tmp/work/main.cpp"}
	if !reflect.DeepEqual(cmd, want) {
		t.Errorf("CompileCommand = %v, want %v", cmd, want)
	}

	interpreted := &Spec{ID: "python", SourceFile: "main.py", RunCmdTpl: "python3 {src}"}
	cmd, err = interpreted.CompileCommand("/tmp/work")
	if err != nil || cmd != nil {
		t.Errorf("interpreted language should have no compile command, got %v, %v", cmd, err)
	}
}

func TestScaleLimits(t *testing.T) {
	spec := &Spec{TimeMultiplier: 3, MemoryMultiplier: 2}
	if got := spec.ScaleTimeLimit(1000); got != 3000 {
		t.Errorf("ScaleTimeLimit = %d, want 3000", got)
	}
	if got := spec.ScaleMemoryLimit(256); got != 512 {
		t.Errorf("ScaleMemoryLimit = %d, want 512", got)
	}
	noMult := &Spec{}
	if got := noMult.ScaleTimeLimit(1000); got != 1000 {
		t.Errorf("zero multiplier should be identity, got %d", got)
	}
}
