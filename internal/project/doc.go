// Package project loads project files into ir.Project and checks their
// block graphs before a runtime ever sees them.
//
// Three formats are accepted, chosen by extension:
//   - .yaml/.yml: decoded with yaml.v3 in strict mode (unknown keys fail)
//   - .json: decoded with encoding/json through the ir codecs
//   - .cue, or a directory of .cue files: evaluated with the CUE SDK; the
//     project is the top-level value, or its "project" field when present
//
// Load failures are *LoadError values carrying an error code and, for CUE
// sources, the position of the offending value. Graph problems found by
// Validate are reported together rather than stopping at the first.
package project
