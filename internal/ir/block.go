package ir

// Block is one node of a block graph. Blocks are owned by a block
// container and referenced by ID; Next, Parent and input Block fields
// hold IDs, never pointers.
//
// A graph contains no cycles through Next. Inputs must not reference
// blocks in a way that recurses onto the block itself; an authored cycle
// is an error condition reported by project validation.
type Block struct {
	ID       string    `json:"id" yaml:"id"`
	Opcode   string    `json:"opcode" yaml:"opcode"`
	Inputs   Inputs    `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Fields   Fields    `json:"fields,omitempty" yaml:"fields,omitempty"`
	Next     string    `json:"next,omitempty" yaml:"next,omitempty"`
	Parent   string    `json:"parent,omitempty" yaml:"parent,omitempty"`
	Mutation *Mutation `json:"mutation,omitempty" yaml:"mutation,omitempty"`
	Shadow   bool      `json:"shadow,omitempty" yaml:"shadow,omitempty"`
	TopLevel bool      `json:"top_level,omitempty" yaml:"top_level,omitempty"`
}

// Input is a named block input: either a literal value or the ID of the
// block that produces it. When both are set the block wins; the literal
// is what the editor shows when the block is removed.
type Input struct {
	Name  string `json:"-" yaml:"-"`
	Block string `json:"block,omitempty" yaml:"block,omitempty"`
	Value Value  `json:"-" yaml:"-"`
}

// HasBlock reports whether the input is graph-valued.
func (in Input) HasBlock() bool {
	return in.Block != ""
}

// Field is a named literal on a block (dropdown choice, variable
// reference). ID is set for fields that reference a variable or
// broadcast by ID.
type Field struct {
	Name  string `json:"-" yaml:"-"`
	Value Value  `json:"-" yaml:"-"`
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
}

// Inputs is an ordered list of inputs. Order follows the authored file.
type Inputs []Input

// Get returns the input with the given name.
func (in Inputs) Get(name string) (Input, bool) {
	for _, i := range in {
		if i.Name == name {
			return i, true
		}
	}
	return Input{}, false
}

// Fields is an ordered list of fields. Order follows the authored file.
type Fields []Field

// Get returns the field with the given name.
func (f Fields) Get(name string) (Field, bool) {
	for _, fl := range f {
		if fl.Name == name {
			return fl, true
		}
	}
	return Field{}, false
}

// Mutation is extra block metadata. Procedure prototypes and calls carry
// the procedure signature here; Warp marks a definition as "run without
// screen refresh".
type Mutation struct {
	ProcCode         string     `json:"proccode,omitempty" yaml:"proccode,omitempty"`
	ArgumentIDs      StringList `json:"argumentids,omitempty" yaml:"argumentids,omitempty"`
	ArgumentNames    StringList `json:"argumentnames,omitempty" yaml:"argumentnames,omitempty"`
	ArgumentDefaults ValueList  `json:"argumentdefaults,omitempty" yaml:"argumentdefaults,omitempty"`
	Warp             Flag       `json:"warp,omitempty" yaml:"warp,omitempty"`
	Return           Flag       `json:"return,omitempty" yaml:"return,omitempty"`
}

// Flag is a boolean that project files may spell either as a bool or as
// a JSON-encoded string ("true"/"false"), as older editors serialize it.
type Flag bool

// StringList is a list of strings that project files may spell either as
// a list or as a JSON-encoded string ('["a","b"]').
type StringList []string

// ValueList is a list of values that project files may spell either as a
// list or as a JSON-encoded string.
type ValueList []Value

// ProcedureSignature describes a procedure's parameters, aligned by index.
type ProcedureSignature struct {
	Names    []string
	IDs      []string
	Defaults []Value
}

// Variable is a named value owned by a target.
type Variable struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Value Value  `json:"-" yaml:"-"`
}

// TargetSpec is one program instance ("sprite" or the stage) as authored.
type TargetSpec struct {
	Name      string     `json:"name" yaml:"name"`
	IsStage   bool       `json:"is_stage,omitempty" yaml:"is_stage,omitempty"`
	Variables []Variable `json:"variables,omitempty" yaml:"variables,omitempty"`
	Blocks    []Block    `json:"blocks" yaml:"blocks"`
	NoGlow    bool       `json:"no_glow,omitempty" yaml:"no_glow,omitempty"`
	Monitors  []string   `json:"monitors,omitempty" yaml:"monitors,omitempty"`
}

// Project is a full program: its targets in layer order.
type Project struct {
	Name    string       `json:"name" yaml:"name"`
	Targets []TargetSpec `json:"targets" yaml:"targets"`
}
