package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if dse, ok := As(err); ok {
		return a.exitCodeFromDocSite(dse)
	}

	return 1
}

// exitCodeFromDocSite maps DocSiteError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromDocSite(err *DocSiteError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid descriptor
	case CategoryContent, CategoryManifest:
		return 3 // Unresolved inputs
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryBuild, CategoryFileSystem:
		return 11 // Build error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if dse, ok := As(err); ok {
		return a.formatDocSite(dse)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatDocSite formats a DocSiteError for display.
func (a *CLIErrorAdapter) formatDocSite(err *DocSiteError) string {
	if a.verbose {
		return err.Error()
	}

	msg := err.Message
	if path, ok := err.Context["path"].(string); ok && path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, path)
	}
	if err.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, err.Cause)
	}

	switch err.Category {
	case CategoryConfig, CategoryValidation:
		return msg
	default:
		return fmt.Sprintf("%s: %s", err.Category, msg)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	_, _ = fmt.Fprintf(a.out, "%s\n", message)
	a.exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if dse, ok := As(err); ok {
		return dse.Category == CategoryInternal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if dse, ok := As(err); ok {
		level := slogLevelFromSeverity(dse.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(dse.Category)),
		}
		for k, v := range dse.Context {
			attrs = append(attrs, slog.Any(k, v))
		}
		if dse.Cause != nil {
			attrs = append(attrs, slog.String("cause", dse.Cause.Error()))
		}
		a.logger.LogAttrs(context.Background(), level, dse.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

func slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
