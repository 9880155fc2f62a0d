// Package config holds hycc's resolved command-line configuration.
//
// The teacher's config.Config carries a large Feature/Warning table
// driving a configurable dialect of B; this compiler has one fixed
// dialect and one fixed target, so Config shrinks to the handful of
// knobs the driver actually needs.
package config

// Config is the resolved set of options for one compilation.
type Config struct {
	// InputPath is the source file to compile.
	InputPath string
	// OutputPath is the final executable's path. Defaults to the
	// input's base name with its extension stripped.
	OutputPath string
	// EmitAsmOnly stops the pipeline after writing the .s file,
	// skipping assembly, linking, and running.
	EmitAsmOnly bool
	// KeepTemps leaves the generated .s and .o files on disk instead
	// of removing them after linking.
	KeepTemps bool
	// Verbose turns on stage-progress logging.
	Verbose bool
}

// AsmPath returns the path hycc writes generated assembly to.
func (c *Config) AsmPath() string {
	return c.OutputPath + ".s"
}

// ObjPath returns the path hycc writes the assembled object file to.
func (c *Config) ObjPath() string {
	return c.OutputPath + ".o"
}
