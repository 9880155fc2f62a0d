// Command hygold runs hycc against a set of .hy fixtures and compares
// each run's outcome to a golden JSON record, the way the teacher's
// cmd/gtest compares a target compiler's behavior against a reference
// compiler — except here there is only one compiler, so the "golden"
// side is a recorded outcome rather than a second toolchain to run
// side by side.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
)

// Outcome is the recorded shape of one hycc invocation: either it ran
// to completion with an exit code, or it failed before producing a
// binary, in which case Diagnostics holds the reported errors.
type Outcome struct {
	ExitCode    int      `json:"exit_code"`
	Diagnostics []string `json:"diagnostics,omitempty"`
	CompileFail bool     `json:"compile_fail,omitempty"`
}

// GoldenRecord is keyed by the xxhash of the fixture's content so a
// golden file always names the exact source it was generated from.
type GoldenRecord struct {
	SourceHash string  `json:"source_hash"`
	Outcome    Outcome `json:"outcome"`
}

var (
	compilerPath = flag.String("hycc", "./hycc", "Path to the hycc binary under test.")
	fixtureGlob  = flag.String("fixtures", "testdata/*.hy", "Glob pattern for fixture files.")
	generate     = flag.String("generate-golden", "", "Generate a golden record for this single fixture instead of checking it.")
	timeout      = flag.Duration("timeout", 5*time.Second, "Timeout for each hycc invocation.")
)

func main() {
	flag.Parse()

	if *generate != "" {
		if err := generateGolden(*generate); err != nil {
			log.Fatalf("could not generate golden record: %v", err)
		}
		return
	}

	fixtures, err := filepath.Glob(*fixtureGlob)
	if err != nil {
		log.Fatalf("bad fixture glob %q: %v", *fixtureGlob, err)
	}
	sort.Strings(fixtures)

	failed := 0
	for _, fixture := range fixtures {
		if err := checkFixture(fixture); err != nil {
			fmt.Printf("FAIL %s: %v\n", fixture, err)
			failed++
			continue
		}
		fmt.Printf("PASS %s\n", fixture)
	}
	if failed > 0 {
		fmt.Printf("%d/%d fixtures failed\n", failed, len(fixtures))
		os.Exit(1)
	}
	fmt.Printf("%d fixtures passed\n", len(fixtures))
}

func goldenPath(fixture string) string {
	return filepath.Join(filepath.Dir(fixture), "."+filepath.Base(fixture)+".golden.json")
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum64()), nil
}

func generateGolden(fixture string) error {
	hash, err := hashFile(fixture)
	if err != nil {
		return err
	}
	outcome, err := runFixture(fixture)
	if err != nil {
		return err
	}
	record := GoldenRecord{SourceHash: hash, Outcome: *outcome}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(goldenPath(fixture), data, 0644)
}

func checkFixture(fixture string) error {
	goldenData, err := os.ReadFile(goldenPath(fixture))
	if err != nil {
		return fmt.Errorf("no golden record (run with -generate-golden=%s first): %w", fixture, err)
	}
	var golden GoldenRecord
	if err := json.Unmarshal(goldenData, &golden); err != nil {
		return fmt.Errorf("could not parse golden record: %w", err)
	}

	hash, err := hashFile(fixture)
	if err != nil {
		return err
	}
	if hash != golden.SourceHash {
		return fmt.Errorf("fixture content changed since golden was recorded; regenerate with -generate-golden=%s", fixture)
	}

	outcome, err := runFixture(fixture)
	if err != nil {
		return err
	}
	if diff := cmp.Diff(golden.Outcome, *outcome); diff != "" {
		return fmt.Errorf("outcome mismatch (-golden +got):\n%s", diff)
	}
	return nil
}

// runFixture compiles and runs one fixture through hycc and reduces
// the result to the outcome shape a golden record cares about: the
// program's exit code, or the diagnostics hycc printed if compilation
// itself failed.
func runFixture(fixture string) (*Outcome, error) {
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	binDir, err := os.MkdirTemp("", "hygold-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(binDir)
	binPath := filepath.Join(binDir, "out")

	cmd := exec.CommandContext(ctx, *compilerPath, "-o", binPath, fixture)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil {
		if _, ok := runErr.(*exec.ExitError); !ok {
			return nil, fmt.Errorf("could not invoke hycc: %w", runErr)
		}
	}
	if _, statErr := os.Stat(binPath); statErr != nil {
		return &Outcome{
			CompileFail: true,
			Diagnostics: splitLines(stderr.String()),
		}, nil
	}

	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
	}
	return &Outcome{ExitCode: exitCode}, nil
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
