// Command hycc compiles one source file to a native AArch64 executable
// and runs it, mirroring the reference toolchain's lex -> parse ->
// generate -> assemble -> link -> run pipeline.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/nullstitch/hyc/pkg/cli"
	"github.com/nullstitch/hyc/pkg/codegen"
	"github.com/nullstitch/hyc/pkg/config"
	"github.com/nullstitch/hyc/pkg/diag"
	"github.com/nullstitch/hyc/pkg/lexer"
	"github.com/nullstitch/hyc/pkg/parser"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(arguments []string) int {
	cfg := &config.Config{}
	exitCode := 0

	app := cli.NewApp("hycc")
	app.Synopsis = "[options] <input.hy>"
	app.Description = "Compile a source file to a native AArch64 executable and run it."
	app.Authors = []string{"hyc contributors"}

	var outputFlag string
	app.FlagSet.String(&outputFlag, "output", "o", "", "Write the executable to this path")
	app.FlagSet.Bool(&cfg.EmitAsmOnly, "emit-asm", "S", false, "Stop after writing the generated assembly")
	app.FlagSet.Bool(&cfg.KeepTemps, "keep-temps", "", false, "Keep the generated .s and .o files")
	app.FlagSet.Bool(&cfg.Verbose, "verbose", "v", false, "Log each pipeline stage")

	app.Action = func(args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("expected exactly one input file, got %d", len(args))
		}
		cfg.InputPath = args[0]
		cfg.OutputPath = outputFlag
		if cfg.OutputPath == "" {
			base := filepath.Base(cfg.InputPath)
			cfg.OutputPath = strings.TrimSuffix(base, filepath.Ext(base))
		}
		exitCode = compileAndRun(cfg)
		return nil
	}

	if err := app.Run(arguments); err != nil {
		fmt.Fprintln(os.Stderr, "hycc:", err)
		return 2
	}
	return exitCode
}

func newLogger(cfg *config.Config) *log.Logger {
	level := log.WarnLevel
	if cfg.Verbose {
		level = log.InfoLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Level:           level,
		Prefix:          "hycc",
	})
	return logger
}

// compileAndRun runs one source file through the whole pipeline and
// returns the process exit code hycc itself should exit with: the
// compiled program's own exit code on success, 2 if the pipeline
// aborted before assembly, or the assembler/linker's own status if
// one of those failed.
func compileAndRun(cfg *config.Config) int {
	logger := newLogger(cfg)

	source, err := os.ReadFile(cfg.InputPath)
	if err != nil {
		logger.Error("could not read input", "path", cfg.InputPath, "err", err)
		return 2
	}

	logger.Info("lexing", "file", cfg.InputPath)
	tokens, err := lexer.New([]rune(string(source))).Tokenize()
	if err != nil {
		fmt.Fprintln(os.Stderr, "hycc:", err)
		return 2
	}

	logger.Info("parsing", "tokens", len(tokens))
	sink := diag.NewSink()
	prog := parser.New(tokens, sink).Parse()
	for _, d := range sink.Diagnostics() {
		fmt.Fprintln(os.Stderr, d.String())
	}

	// Assembly generation does not gate on diagnostics: it still emits
	// whatever assembly the successfully-parsed statements produce,
	// but if any error was reported the pipeline stops short of
	// assembling it and exits with 2.
	logger.Info("generating assembly", "statements", len(prog.Stmts))
	asmText := codegen.Generate(prog)

	asmPath := cfg.AsmPath()
	if err := os.WriteFile(asmPath, []byte(asmText), 0644); err != nil {
		logger.Error("could not write assembly", "path", asmPath, "err", err)
		return 2
	}
	if !cfg.KeepTemps && !cfg.EmitAsmOnly {
		defer os.Remove(asmPath)
	}
	if sink.HasErrors() {
		return 2
	}
	if cfg.EmitAsmOnly {
		logger.Info("wrote assembly", "path", asmPath)
		return 0
	}

	objPath := cfg.ObjPath()
	if !cfg.KeepTemps {
		defer os.Remove(objPath)
	}

	logger.Info("assembling", "as", asmPath, "-o", objPath)
	if status, ok := runTool(logger, "as", "-o", objPath, asmPath); !ok {
		return status
	}

	logger.Info("linking", "ld", objPath, "-o", cfg.OutputPath)
	sdkPath, err := xcrunSDKPath()
	if err != nil {
		logger.Error("could not locate SDK", "err", err)
		return 2
	}
	if status, ok := runTool(logger, "ld", "-arch", "arm64", "-o", cfg.OutputPath, objPath,
		"-lSystem", "-syslibroot", sdkPath, "-e", "_main"); !ok {
		return status
	}

	logger.Info("running", "binary", cfg.OutputPath)
	return runProgram(cfg.OutputPath)
}

// runTool runs an external toolchain command, forwarding its stderr,
// and reports (its own exit status, false) on failure so the caller
// can propagate the assembler/linker's own status verbatim.
func runTool(logger *log.Logger, name string, args ...string) (int, bool) {
	path, err := findTool(name)
	if err != nil {
		logger.Error("tool not found", "tool", name, "err", err)
		return 2, false
	}
	cmd := exec.Command(path, args...)
	cmd.Stderr = os.Stderr
	cmd.Stdout = os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), false
		}
		logger.Error("could not run tool", "tool", name, "err", err)
		return 2, false
	}
	return 0, true
}

// findTool resolves an external toolchain command by name, checking
// /usr/bin before falling back to PATH.
func findTool(name string) (string, error) {
	for _, candidate := range []string{
		filepath.Join("/usr/bin", name),
	} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return exec.LookPath(name)
}

func xcrunSDKPath() (string, error) {
	out, err := exec.Command("xcrun", "--show-sdk-path").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// runProgram executes the freshly linked binary, forwarding stdio and
// signals, and returns its exit status the way a shell would.
func runProgram(path string) int {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	cmd := exec.Command(abs)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		for range sigs {
			if cmd.Process != nil {
				cmd.Process.Signal(os.Interrupt)
			}
		}
	}()

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
				return status.ExitStatus()
			}
			return exitErr.ExitCode()
		}
		fmt.Fprintln(os.Stderr, "hycc:", err)
		return 2
	}
	return 0
}
