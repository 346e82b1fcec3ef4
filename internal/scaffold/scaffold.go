// Package scaffold materializes a declarative directory tree on disk.
package scaffold

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/Iron-Ham/devstrap/internal/console"
	"github.com/Iron-Ham/devstrap/internal/errors"
	"github.com/Iron-Ham/devstrap/internal/logging"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Spec describes a project tree. Dirs and Files keys are slash-separated
// paths relative to Root.
type Spec struct {
	Root  string
	Dirs  []string
	Files map[string][]byte
}

// Validate rejects an empty root and any entry that is absolute or would
// land outside Root.
func (s Spec) Validate() error {
	if s.Root == "" {
		return errors.Wrap(errors.ErrInvalidInput, "scaffold root is empty")
	}
	for _, d := range s.Dirs {
		if err := checkRelative(d); err != nil {
			return err
		}
	}
	for p := range s.Files {
		if err := checkRelative(p); err != nil {
			return err
		}
	}
	return nil
}

func checkRelative(p string) error {
	if p == "" || strings.HasPrefix(p, "/") || !filepath.IsLocal(filepath.FromSlash(p)) {
		return errors.Wrapf(errors.ErrInvalidInput, "path %q is not relative to the project root", p)
	}
	return nil
}

// FilePaths returns the file keys in the order they are written.
func (s Spec) FilePaths() []string {
	paths := make([]string, 0, len(s.Files))
	for p := range s.Files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Scaffolder writes Specs to a filesystem.
type Scaffolder struct {
	fs      afero.Fs
	printer *console.Printer
	logger  *logging.Logger
}

// New creates a Scaffolder over fs.
func New(fs afero.Fs, printer *console.Printer, logger *logging.Logger) *Scaffolder {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Scaffolder{
		fs:      fs,
		printer: printer,
		logger:  logger.WithStep("scaffold"),
	}
}

// Apply creates spec.Root from scratch. An existing Root is removed first,
// so re-running yields the same file set. Failures are *errors.FileSystemError
// and leave whatever was already written in place.
func (s *Scaffolder) Apply(spec Spec) error {
	if err := spec.Validate(); err != nil {
		return errors.NewFileSystemError("validate", spec.Root, err)
	}

	name := filepath.Base(spec.Root)
	s.printer.Info("Creating project structure...")

	exists, err := afero.Exists(s.fs, spec.Root)
	if err != nil {
		return errors.NewFileSystemError("stat", spec.Root, err)
	}
	if exists {
		s.printer.Warning("Directory %s already exists. Removing...", name)
		s.logger.Warn("removing existing project directory", "path", spec.Root)
		if err := s.fs.RemoveAll(spec.Root); err != nil {
			return errors.NewFileSystemError("remove", spec.Root, err)
		}
	}

	if err := s.fs.MkdirAll(spec.Root, dirPerm); err != nil {
		return errors.NewFileSystemError("mkdir", spec.Root, err)
	}
	s.printer.Success("Directory %s created", name)

	for _, d := range spec.Dirs {
		path := filepath.Join(spec.Root, filepath.FromSlash(d))
		if err := s.fs.MkdirAll(path, dirPerm); err != nil {
			return errors.NewFileSystemError("mkdir", path, err)
		}
	}

	for _, rel := range spec.FilePaths() {
		path := filepath.Join(spec.Root, filepath.FromSlash(rel))
		if err := s.fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
			return errors.NewFileSystemError("mkdir", filepath.Dir(path), err)
		}
		if err := afero.WriteFile(s.fs, path, spec.Files[rel], filePerm); err != nil {
			return errors.NewFileSystemError("write", path, err)
		}
		s.logger.Debug("file written", "path", rel, "bytes", len(spec.Files[rel]))
	}

	s.logger.Info("project structure created", "root", spec.Root, "dirs", len(spec.Dirs), "files", len(spec.Files))
	s.printer.Success("Project structure created (%s)", plural(len(spec.Files), "file"))
	return nil
}

// WriteFile writes a single file under root, creating its parent directory.
func (s *Scaffolder) WriteFile(root, rel string, data []byte) error {
	if err := checkRelative(rel); err != nil {
		return errors.NewFileSystemError("validate", rel, err)
	}
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := s.fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return errors.NewFileSystemError("mkdir", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(s.fs, path, data, filePerm); err != nil {
		return errors.NewFileSystemError("write", path, err)
	}
	s.logger.Debug("file written", "path", rel, "bytes", len(data))
	return nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
