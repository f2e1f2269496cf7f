package exit

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	CodeSuccess = 0
	// CodeFailure covers failed steps and runtime errors.
	CodeFailure = 1
	// CodeUsage covers invalid arguments.
	CodeUsage = 2
)

// Result is a message, its destination and the process exit code.
type Result struct {
	Output   io.Writer
	ExitCode int
	Message  string
}

// Print writes the message, terminated by a newline.
func (r *Result) Print() {
	if r.Message == "" {
		return
	}
	msg := r.Message
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprint(r.Output, msg)
}

func Success(message string) *Result {
	return &Result{Output: os.Stdout, ExitCode: CodeSuccess, Message: message}
}

func Error(message string) *Result {
	return &Result{Output: os.Stderr, ExitCode: CodeFailure, Message: message}
}

func Errorf(format string, a ...any) *Result {
	return Error(fmt.Sprintf(format, a...))
}

// Usagef reports invalid arguments.
func Usagef(format string, a ...any) *Result {
	return &Result{Output: os.Stderr, ExitCode: CodeUsage, Message: fmt.Sprintf(format, a...)}
}
