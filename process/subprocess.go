// Abstractions for running subprocesses and capturing their output, used by the parallel driver
// to spawn one worker invocation of this same program per scan root.

package process

import (
	"os/exec"
	"strings"
)

// Run starts programPath with arguments and waits for it to finish, capturing stdout/stderr
// separately.  Unlike a simple RunSubprocess, Run returns output even on nonzero exit -- the
// parallel driver needs the worker's stderr to build a WorkerFailure regardless of how it failed.
func Run(programPath string, arguments []string) (stdout, stderr string, err error) {
	cmd := exec.Command(programPath, arguments...)
	var out, errOut strings.Builder
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	err = cmd.Run()
	return out.String(), errOut.String(), err
}

// Start launches programPath with arguments in the background and returns the *exec.Cmd so the
// caller can Wait on it and, if necessary, kill it.  Stderr is captured for diagnosis.
func Start(programPath string, arguments []string) (*exec.Cmd, *strings.Builder, error) {
	cmd := exec.Command(programPath, arguments...)
	var errOut strings.Builder
	cmd.Stderr = &errOut
	err := cmd.Start()
	return cmd, &errOut, err
}
