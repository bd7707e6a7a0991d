package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/blockvm/internal/project"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                      `json:"valid"`
	Project string                    `json:"project,omitempty"`
	Format  string                    `json:"format,omitempty"`
	Hash    string                    `json:"hash,omitempty"`
	Targets int                       `json:"targets"`
	Blocks  int                       `json:"blocks"`
	Errors  []ValidationErrorLocation `json:"errors,omitempty"`
}

// ValidationErrorLocation is a validation error with its source position,
// when the project format has positions.
type ValidationErrorLocation struct {
	project.ValidationError
	Line   int `json:"line,omitempty"`
	Column int `json:"column,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <project>",
		Short: "Validate a project without running it",
		Long: `Load a project and check its block graphs.

Checks for dangling block references, next chains that loop, blocks that
reach themselves through their inputs, duplicate IDs and targets, and
monitors of missing blocks.

Exit codes:
  0 - Project is valid
  1 - Project has validation errors
  2 - Project could not be loaded`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	loaded, err := loadProject(f, path)
	if err != nil {
		return err
	}

	result := summarize(loaded)
	result.Valid = true
	if f.JSON() {
		return f.Success(result)
	}
	return f.Success(fmt.Sprintf("✓ %s is valid (%d targets, %d blocks)", loaded.Path, result.Targets, result.Blocks))
}

func summarize(loaded *project.Loaded) ValidationResult {
	r := ValidationResult{
		Project: loaded.Project.Name,
		Format:  loaded.Format,
		Hash:    loaded.Hash,
		Targets: len(loaded.Project.Targets),
	}
	for _, t := range loaded.Project.Targets {
		r.Blocks += len(t.Blocks)
	}
	return r
}

// outputValidationErrors renders every validation error, with positions
// for CUE sources.
func outputValidationErrors(f *OutputFormatter, loaded *project.Loaded, verrs []project.ValidationError) error {
	located := make([]ValidationErrorLocation, len(verrs))
	for i, v := range verrs {
		located[i] = ValidationErrorLocation{ValidationError: v}
		if pos := loaded.Position(v.Target, v.Block); pos.IsValid() {
			located[i].Line = pos.Line()
			located[i].Column = pos.Column()
		}
	}

	if f.JSON() {
		result := summarize(loaded)
		result.Errors = located
		return f.Failure(project.ErrCodeInvalid, fmt.Sprintf("project has %d error(s)", len(verrs)), result)
	}

	fmt.Fprintf(f.Writer, "✗ %s has %d error(s)\n\n", loaded.Path, len(verrs))
	for _, v := range located {
		if v.Line > 0 {
			fmt.Fprintf(f.Writer, "%s:%d:%d\n", loaded.Path, v.Line, v.Column)
		}
		fmt.Fprintf(f.Writer, "  %s\n", v.ValidationError.Error())
	}
	return nil
}
