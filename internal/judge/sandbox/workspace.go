package sandbox

import (
	"io"
	"os"
	"path/filepath"

	apperr "algolab/pkg/errors"
)

// Workspace is an ephemeral working directory for one grading run.
// Concurrent runs never share a workspace.
type Workspace struct {
	dir string
}

// NewWorkspace creates a unique directory under baseDir. An empty
// baseDir falls back to the system temp directory.
func NewWorkspace(baseDir string) (*Workspace, error) {
	if baseDir != "" {
		if err := os.MkdirAll(baseDir, 0o755); err != nil {
			return nil, apperr.Wrapf(err, apperr.WorkspaceError, "create workspace base dir failed")
		}
	}
	dir, err := os.MkdirTemp(baseDir, "judge-*")
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.WorkspaceError, "create workspace failed")
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace root path.
func (w *Workspace) Dir() string {
	return w.dir
}

// WriteFile writes content to a file relative to the workspace root.
func (w *Workspace) WriteFile(name, content string) error {
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return apperr.Wrapf(err, apperr.WorkspaceError, "write %s failed", name)
	}
	return nil
}

// NewSubdir creates a fresh subdirectory for one test case run and copies
// the named files from the workspace root into it. Compiled artifacts get
// copied so a run cannot corrupt the shared artifact for later cases.
func (w *Workspace) NewSubdir(name string, files ...string) (string, error) {
	sub := filepath.Join(w.dir, name)
	if err := os.MkdirAll(sub, 0o755); err != nil {
		return "", apperr.Wrapf(err, apperr.WorkspaceError, "create run dir failed")
	}
	for _, f := range files {
		if err := copyFile(filepath.Join(w.dir, f), filepath.Join(sub, f)); err != nil {
			return "", err
		}
	}
	return sub, nil
}

// RootFiles lists the regular files at the workspace root, minus the
// named exclusions. After a compile this is the artifact set a run
// directory needs.
func (w *Workspace) RootFiles(exclude ...string) ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.WorkspaceError, "list workspace failed")
	}
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || skip[entry.Name()] {
			continue
		}
		files = append(files, entry.Name())
	}
	return files, nil
}

// Remove deletes the workspace and everything beneath it.
func (w *Workspace) Remove() error {
	return os.RemoveAll(w.dir)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return apperr.Wrapf(err, apperr.WorkspaceError, "open %s failed", src)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return apperr.Wrapf(err, apperr.WorkspaceError, "stat %s failed", src)
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return apperr.Wrapf(err, apperr.WorkspaceError, "create %s failed", dst)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return apperr.Wrapf(err, apperr.WorkspaceError, "copy to %s failed", dst)
	}
	return nil
}
