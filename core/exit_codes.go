package core

// Exit codes for the application.
// These follow Unix conventions where signal-based exits are 128 + signal number.
const (
	// ExitCodeSuccess indicates clean shutdown (exit code 0)
	ExitCodeSuccess = 0

	// ExitCodeError indicates an error occurred (exit code 1)
	ExitCodeError = 1

	// ExitCodeConfig indicates invalid configuration or usage (exit code 2)
	ExitCodeConfig = 2

	// ExitCodeModel indicates the colorization model could not be loaded (exit code 3)
	ExitCodeModel = 3

	// ExitCodeSIGINT indicates termination due to SIGINT (Ctrl+C)
	// Convention: 128 + 2 (SIGINT) = 130
	ExitCodeSIGINT = 130

	// ExitCodeSIGTERM indicates termination due to SIGTERM
	// Convention: 128 + 15 (SIGTERM) = 143
	ExitCodeSIGTERM = 143
)

// ExitCodeName returns a human-readable name for an exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitCodeSuccess:
		return "success"
	case ExitCodeError:
		return "error"
	case ExitCodeConfig:
		return "configuration error"
	case ExitCodeModel:
		return "model unavailable"
	case ExitCodeSIGINT:
		return "interrupted (SIGINT)"
	case ExitCodeSIGTERM:
		return "terminated (SIGTERM)"
	default:
		return "unknown"
	}
}

// ExitCodeFor maps an error to an exit code. ConfigErrors about the model
// map to ExitCodeModel, other ConfigErrors to ExitCodeConfig.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	if cfgErr, ok := IsConfigError(err); ok {
		if cfgErr.Code == ErrCodeModelMissing {
			return ExitCodeModel
		}
		return ExitCodeConfig
	}
	return ExitCodeError
}

// IsSignalExit returns true if the exit code indicates a signal-based termination.
func IsSignalExit(code int) bool {
	return code == ExitCodeSIGINT || code == ExitCodeSIGTERM
}
