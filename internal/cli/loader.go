package cli

import (
	"errors"
	"fmt"

	"github.com/roach88/blockvm/internal/project"
)

// loadProject loads and validates a project for execution. Problems are
// rendered through the formatter; load failures exit 2, validation
// failures exit 1.
func loadProject(f *OutputFormatter, path string) (*project.Loaded, error) {
	loaded, verrs, err := project.Check(path)
	if err == nil {
		f.VerboseLog("Loaded %s project %q from %s (hash %s)", loaded.Format, loaded.Project.Name, loaded.Path, loaded.Hash)
		return loaded, nil
	}

	if len(verrs) > 0 {
		if outErr := outputValidationErrors(f, loaded, verrs); outErr != nil {
			return nil, outErr
		}
		return nil, NewExitError(ExitFailure, fmt.Sprintf("project has %d error(s)", len(verrs)))
	}

	code, message := loadErrorCode(err)
	if outErr := f.Error(code, message, nil); outErr != nil {
		return nil, outErr
	}
	return nil, WrapExitError(ExitCommandError, "failed to load project", err)
}

// loadErrorCode extracts error code and message from a load error.
func loadErrorCode(err error) (string, string) {
	var loadErr *project.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Error()
	}
	return project.ErrCodeGeneric, err.Error()
}
