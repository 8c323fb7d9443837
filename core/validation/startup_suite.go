package validation

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"creative_backend/core"

	"github.com/fatih/color"
)

// StepStatus represents the status of a startup check.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
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
	case StepRunning:
		return "running"
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

// CheckStep represents a single startup check with its outcome.
type CheckStep struct {
	Name    string
	Status  StepStatus
	Message string
	Error   error
	Latency time.Duration
}

// SuiteResult is the aggregate outcome of the startup suite. Success means
// local prerequisites are satisfied; unreachable remote services downgrade
// to warnings because every pipeline stage degrades rather than aborts.
type SuiteResult struct {
	Steps       []CheckStep
	TotalSteps  int
	PassedSteps int
	FailedSteps int
	Warnings    int
	Duration    time.Duration
	Success     bool
}

// StartupSuite verifies local prerequisites and remote service reachability
// before the server starts accepting requests, printing a colored progress
// report as it goes.
type StartupSuite struct {
	cfg          *core.Config
	output       io.Writer
	checker      *ConnectivityChecker
	showProgress bool
}

// NewStartupSuite creates a StartupSuite for the given configuration.
func NewStartupSuite(cfg *core.Config) *StartupSuite {
	checker := NewConnectivityChecker().
		WithAllowSelfSignedCerts(cfg.AllowSelfSignedCerts)
	return &StartupSuite{
		cfg:          cfg,
		output:       os.Stdout,
		checker:      checker,
		showProgress: true,
	}
}

// WithOutput sets the output writer for progress messages.
func (s *StartupSuite) WithOutput(w io.Writer) *StartupSuite {
	s.output = w
	return s
}

// WithShowProgress enables or disables progress output.
func (s *StartupSuite) WithShowProgress(show bool) *StartupSuite {
	s.showProgress = show
	return s
}

// WithTimeout sets the timeout for remote checks.
func (s *StartupSuite) WithTimeout(timeout time.Duration) *StartupSuite {
	s.checker.WithTimeout(timeout)
	return s
}

// Run executes all startup checks in sequence.
func (s *StartupSuite) Run(ctx context.Context) SuiteResult {
	startTime := time.Now()
	steps := make([]CheckStep, 0, 5)

	if s.showProgress {
		s.printHeader("Creative Pipeline Startup Checks")
	}

	// Local prerequisites first. These are hard failures.
	steps = append(steps, s.runStep("Outputs Directory", s.checkOutputsDir))
	steps = append(steps, s.runStep("Database Directory", s.checkDatabaseDir))

	// Remote services. Unreachable services degrade the pipeline but do
	// not stop the server, so failures here become warnings.
	remote := []struct {
		name string
		url  string
	}{
		{"Prompt Enhancer", s.cfg.EnhancerURL},
		{"Text-to-Image Service", s.cfg.ServiceURL(s.cfg.TextToImageService)},
		{"Image-to-3D Service", s.cfg.ServiceURL(s.cfg.ImageTo3DService)},
	}
	for _, svc := range remote {
		step := s.runStep(svc.name, func() (bool, string, error) {
			result := s.checker.CheckServiceConnectivity(ctx, svc.url)
			msg := result.Message
			if result.Latency > 0 {
				msg = fmt.Sprintf("%s (latency: %v)", msg, result.Latency.Round(time.Millisecond))
			}
			return result.Reachable, msg, result.Error
		})
		if step.Status == StepFailed {
			step.Status = StepWarning
			if s.showProgress {
				s.printStep(step)
			}
		}
		steps = append(steps, step)
	}

	result := s.buildResult(steps, startTime)

	if s.showProgress {
		s.printSummary(result)
	}

	return result
}

// checkOutputsDir verifies the artifact directory exists and is writable.
func (s *StartupSuite) checkOutputsDir() (bool, string, error) {
	if err := os.MkdirAll(s.cfg.OutputsDir, 0o755); err != nil {
		return false, "Cannot create outputs directory", err
	}
	probe := filepath.Join(s.cfg.OutputsDir, ".write_check")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return false, "Outputs directory is not writable", err
	}
	os.Remove(probe)
	return true, s.cfg.OutputsDir, nil
}

// checkDatabaseDir verifies the database's parent directory can be created.
func (s *StartupSuite) checkDatabaseDir() (bool, string, error) {
	dir := filepath.Dir(s.cfg.DatabasePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, "Cannot create database directory", err
	}
	return true, s.cfg.DatabasePath, nil
}

// runStep executes a check with timing and progress output.
func (s *StartupSuite) runStep(name string, fn func() (bool, string, error)) CheckStep {
	step := CheckStep{Name: name, Status: StepRunning}

	if s.showProgress {
		fmt.Fprintf(s.output, "  ◌ %s...", name)
	}

	startTime := time.Now()
	passed, message, err := fn()
	step.Latency = time.Since(startTime)
	step.Message = message
	step.Error = err

	if passed {
		step.Status = StepPassed
	} else {
		step.Status = StepFailed
	}

	if s.showProgress {
		s.printStep(step)
	}

	return step
}

// buildResult creates a SuiteResult from completed steps.
func (s *StartupSuite) buildResult(steps []CheckStep, startTime time.Time) SuiteResult {
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

// printHeader prints the suite header.
func (s *StartupSuite) printHeader(title string) {
	fmt.Fprintln(s.output)
	headerColor := color.New(color.FgCyan, color.Bold)
	headerColor.Fprintf(s.output, "━━━ %s ━━━\n", title)
	fmt.Fprintln(s.output)
}

// printStep prints a completed check with its status indicator.
func (s *StartupSuite) printStep(step CheckStep) {
	var icon string
	var clr *color.Color

	switch step.Status {
	case StepPassed:
		icon = "✓"
		clr = color.New(color.FgGreen)
	case StepFailed:
		icon = "✗"
		clr = color.New(color.FgRed)
	case StepWarning:
		icon = "!"
		clr = color.New(color.FgYellow)
	case StepSkipped:
		icon = "○"
		clr = color.New(color.FgHiBlack)
	default:
		icon = "?"
		clr = color.New(color.FgWhite)
	}

	fmt.Fprintf(s.output, "\r")
	clr.Fprintf(s.output, "  %s %s", icon, step.Name)

	if step.Message != "" {
		dim := color.New(color.FgHiBlack)
		dim.Fprintf(s.output, " - %s", step.Message)
	}
	fmt.Fprintln(s.output)

	if step.Status != StepPassed && step.Error != nil {
		errColor := color.New(color.FgRed)
		errColor.Fprintf(s.output, "    └─ %s\n", step.Error.Error())
	}
}

// printSummary prints the final suite summary.
func (s *StartupSuite) printSummary(result SuiteResult) {
	fmt.Fprintln(s.output)

	if result.Success {
		successColor := color.New(color.FgGreen, color.Bold)
		successColor.Fprintf(s.output, "━━━ Startup Checks Passed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d/%d passed, %d warnings, %v)",
			result.PassedSteps, result.TotalSteps, result.Warnings, result.Duration.Round(time.Millisecond))
		successColor.Fprintln(s.output, " ━━━")
	} else {
		failColor := color.New(color.FgRed, color.Bold)
		failColor.Fprintf(s.output, "━━━ Startup Checks Failed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d passed, %d failed)",
			result.PassedSteps, result.FailedSteps)
		failColor.Fprintln(s.output, " ━━━")
	}

	fmt.Fprintln(s.output)
}

// GetFirstError returns the first error from failed steps, or nil.
func (r SuiteResult) GetFirstError() error {
	for _, step := range r.Steps {
		if step.Status == StepFailed && step.Error != nil {
			return step.Error
		}
	}
	return nil
}
