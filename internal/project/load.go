package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/blockvm/internal/ir"
)

// Source formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatCUE  = "cue"
)

// Loaded is a decoded project together with where it came from and a
// fingerprint of its content.
type Loaded struct {
	Project ir.Project
	Path    string
	Format  string
	// Hash is ir.ProjectHash over the canonical JSON of the source
	// document, so formatting and key order do not change it.
	Hash string

	cue cue.Value // set for CUE sources
}

// Load reads the project at path, choosing the decoder by extension. A
// directory is loaded as a CUE package.
func Load(path string) (*Loaded, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("project not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("accessing project: %v", err)}
	}
	if info.IsDir() {
		return LoadCUE(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return LoadCUE(path)
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("reading project: %v", err)}
		}
		return LoadYAML(data, path)
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("reading project: %v", err)}
		}
		return LoadJSON(data, path)
	default:
		return nil, &LoadError{Code: ErrCodeFormat, Message: fmt.Sprintf("unsupported project format %q (want .yaml, .yml, .json or .cue)", filepath.Ext(path))}
	}
}

// LoadYAML decodes a YAML project. Unknown keys are errors.
func LoadYAML(data []byte, name string) (*Loaded, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p ir.Project
	if err := dec.Decode(&p); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("%s: %v", name, err)}
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("%s: %v", name, err)}
	}
	hash, err := fingerprint(raw)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("%s: %v", name, err)}
	}
	return &Loaded{Project: p, Path: name, Format: FormatYAML, Hash: hash}, nil
}

// LoadJSON decodes a JSON project. Unknown keys are errors.
func LoadJSON(data []byte, name string) (*Loaded, error) {
	p, hash, err := decodeJSON(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("%s: %v", name, err)}
	}
	return &Loaded{Project: p, Path: name, Format: FormatJSON, Hash: hash}, nil
}

// LoadCUE evaluates a .cue file, or the package in a directory, and
// decodes the result. The value must be concrete.
func LoadCUE(path string) (*Loaded, error) {
	dir, args := path, []string{"."}
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		dir, args = filepath.Dir(path), []string{filepath.Base(path)}
	}

	instances := load.Instances(args, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, cueError(ErrCodeLoadFailed, inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, cueError(ErrCodeBuildFailed, err)
	}
	if pv := value.LookupPath(cue.ParsePath("project")); pv.Exists() {
		value = pv
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(ErrCodeBuildFailed, err)
	}

	data, err := value.MarshalJSON()
	if err != nil {
		return nil, cueError(ErrCodeBuildFailed, err)
	}
	p, hash, err := decodeJSON(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: err.Error(), Pos: value.Pos()}
	}
	return &Loaded{Project: p, Path: path, Format: FormatCUE, Hash: hash, cue: value}, nil
}

func decodeJSON(data []byte) (ir.Project, string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var p ir.Project
	if err := dec.Decode(&p); err != nil {
		return ir.Project{}, "", err
	}

	raw := json.NewDecoder(bytes.NewReader(data))
	raw.UseNumber()
	var doc any
	if err := raw.Decode(&doc); err != nil {
		return ir.Project{}, "", err
	}
	hash, err := fingerprint(doc)
	if err != nil {
		return ir.Project{}, "", err
	}
	return p, hash, nil
}

func fingerprint(doc any) (string, error) {
	v, err := ir.FromGo(doc)
	if err != nil {
		return "", err
	}
	canonical, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", err
	}
	return ir.ProjectHash(canonical), nil
}

// Position returns the source position of a block for CUE projects, or
// of the target when block is empty. Other formats have no positions.
func (l *Loaded) Position(target, block string) token.Pos {
	if !l.cue.Exists() {
		return token.NoPos
	}
	for ti, t := range l.Project.Targets {
		if t.Name != target {
			continue
		}
		path := []cue.Selector{cue.Str("targets"), cue.Index(ti)}
		if block != "" {
			bi := -1
			for i, b := range t.Blocks {
				if b.ID == block {
					bi = i
					break
				}
			}
			if bi < 0 {
				return token.NoPos
			}
			path = append(path, cue.Str("blocks"), cue.Index(bi))
		}
		return l.cue.LookupPath(cue.MakePath(path...)).Pos()
	}
	return token.NoPos
}

// Check loads and validates in one go. Validation problems come back as a
// single LoadError listing all of them, positioned at the first when the
// source has positions.
func Check(path string) (*Loaded, []ValidationError, error) {
	l, err := Load(path)
	if err != nil {
		return nil, nil, err
	}
	verrs := Validate(l.Project)
	if len(verrs) == 0 {
		return l, nil, nil
	}
	msgs := make([]string, len(verrs))
	for i, v := range verrs {
		msgs[i] = v.Error()
	}
	return l, verrs, &LoadError{
		Code:    ErrCodeInvalid,
		Message: strings.Join(msgs, "; "),
		Pos:     l.Position(verrs[0].Target, verrs[0].Block),
	}
}
