// Package validation runs startup checks and prints their progress.
package validation

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// StepStatus represents the status of a validation step.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepPassed
	StepFailed
	StepWarning
	StepSkipped
)

// String returns the string representation of a step status.
func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepPassed:
		return "passed"
	case StepFailed:
		return "failed"
	case StepWarning:
		return "warning"
	case StepSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Check is one named validation. Run returns a short message on success.
// A failing Optional check is reported as a warning and does not fail the suite.
type Check struct {
	Name     string
	Run      func() (string, error)
	Optional bool
}

// ValidationStep represents a single executed check.
type ValidationStep struct {
	Name    string
	Status  StepStatus
	Message string
	Error   error
	Latency time.Duration
}

// SuiteResult represents the complete result of validation suite execution.
type SuiteResult struct {
	Steps       []ValidationStep
	TotalSteps  int
	PassedSteps int
	FailedSteps int
	Warnings    int
	Duration    time.Duration
	Success     bool
}

// ValidationSuite runs checks in order with coloured progress output.
type ValidationSuite struct {
	output       io.Writer
	checks       []Check
	showProgress bool
	failFast     bool
}

// NewValidationSuite creates a suite writing to stdout.
func NewValidationSuite(checks ...Check) *ValidationSuite {
	return &ValidationSuite{
		output:       os.Stdout,
		checks:       checks,
		showProgress: true,
	}
}

// WithOutput sets the output writer for progress messages.
func (s *ValidationSuite) WithOutput(w io.Writer) *ValidationSuite {
	s.output = w
	return s
}

// WithShowProgress enables or disables progress output.
func (s *ValidationSuite) WithShowProgress(show bool) *ValidationSuite {
	s.showProgress = show
	return s
}

// WithFailFast skips the remaining checks after the first failure.
func (s *ValidationSuite) WithFailFast(failFast bool) *ValidationSuite {
	s.failFast = failFast
	return s
}

// Add appends checks.
func (s *ValidationSuite) Add(checks ...Check) *ValidationSuite {
	s.checks = append(s.checks, checks...)
	return s
}

// Validate runs every check and returns the combined result.
func (s *ValidationSuite) Validate(title string) SuiteResult {
	start := time.Now()
	if s.showProgress {
		s.printHeader(title)
	}

	steps := make([]ValidationStep, 0, len(s.checks))
	failed := false
	for _, check := range s.checks {
		var step ValidationStep
		if failed && s.failFast {
			step = ValidationStep{Name: check.Name, Status: StepSkipped, Message: "skipped after earlier failure"}
		} else {
			step = s.runStep(check)
		}
		if step.Status == StepFailed {
			failed = true
		}
		if s.showProgress {
			s.printStep(step)
		}
		steps = append(steps, step)
	}

	result := buildResult(steps, start)
	if s.showProgress {
		s.printSummary(result)
	}
	return result
}

// runStep executes a check with timing.
func (s *ValidationSuite) runStep(check Check) ValidationStep {
	step := ValidationStep{Name: check.Name}
	started := time.Now()
	message, err := check.Run()
	step.Latency = time.Since(started)
	step.Message = message
	step.Error = err

	switch {
	case err == nil:
		step.Status = StepPassed
	case check.Optional:
		step.Status = StepWarning
	default:
		step.Status = StepFailed
	}
	return step
}

// buildResult creates a SuiteResult from completed steps.
func buildResult(steps []ValidationStep, startTime time.Time) SuiteResult {
	result := SuiteResult{
		Steps:      steps,
		TotalSteps: len(steps),
		Duration:   time.Since(startTime),
		Success:    true,
	}
	for _, step := range steps {
		switch step.Status {
		case StepPassed:
			result.PassedSteps++
		case StepFailed:
			result.FailedSteps++
			result.Success = false
		case StepWarning:
			result.Warnings++
		}
	}
	return result
}

func (s *ValidationSuite) printHeader(title string) {
	fmt.Fprintln(s.output)
	color.New(color.FgCyan, color.Bold).Fprintf(s.output, "━━━ %s ━━━\n", title)
	fmt.Fprintln(s.output)
}

// printStep prints a completed validation step with status indicator.
func (s *ValidationSuite) printStep(step ValidationStep) {
	var icon string
	var clr *color.Color

	switch step.Status {
	case StepPassed:
		icon, clr = "✓", color.New(color.FgGreen)
	case StepFailed:
		icon, clr = "✗", color.New(color.FgRed)
	case StepWarning:
		icon, clr = "!", color.New(color.FgYellow)
	case StepSkipped:
		icon, clr = "○", color.New(color.FgHiBlack)
	default:
		icon, clr = "?", color.New(color.FgWhite)
	}

	clr.Fprintf(s.output, "  %s %s", icon, step.Name)
	if step.Message != "" {
		color.New(color.FgHiBlack).Fprintf(s.output, " - %s", step.Message)
	}
	fmt.Fprintln(s.output)

	if step.Error != nil && (step.Status == StepFailed || step.Status == StepWarning) {
		clr.Fprintf(s.output, "    └─ %s\n", step.Error.Error())
	}
}

// printSummary prints the validation summary.
func (s *ValidationSuite) printSummary(result SuiteResult) {
	fmt.Fprintln(s.output)
	dim := color.New(color.FgHiBlack)
	if result.Success {
		ok := color.New(color.FgGreen, color.Bold)
		ok.Fprintf(s.output, "━━━ Validation Passed ")
		dim.Fprintf(s.output, "(%d/%d checks passed in %v)",
			result.PassedSteps, result.TotalSteps, result.Duration.Round(time.Millisecond))
		ok.Fprintln(s.output, " ━━━")
	} else {
		fail := color.New(color.FgRed, color.Bold)
		fail.Fprintf(s.output, "━━━ Validation Failed ")
		dim.Fprintf(s.output, "(%d passed, %d failed)", result.PassedSteps, result.FailedSteps)
		fail.Fprintln(s.output, " ━━━")
	}
	fmt.Fprintln(s.output)
}

// GetFirstError returns the first error from failed steps, or nil if all passed.
func (r SuiteResult) GetFirstError() error {
	for _, step := range r.Steps {
		if step.Status == StepFailed && step.Error != nil {
			return step.Error
		}
	}
	return nil
}

// Summary returns a human-readable summary string.
func (r SuiteResult) Summary() string {
	var sb strings.Builder
	if r.Success {
		sb.WriteString("Validation Passed: ")
	} else {
		sb.WriteString("Validation Failed: ")
	}
	fmt.Fprintf(&sb, "%d/%d checks passed", r.PassedSteps, r.TotalSteps)
	if r.FailedSteps > 0 {
		fmt.Fprintf(&sb, ", %d failed", r.FailedSteps)
	}
	if r.Warnings > 0 {
		fmt.Fprintf(&sb, ", %d warnings", r.Warnings)
	}
	return sb.String()
}
