package procexec

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecStatus(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	assert.Equal(t, 0, Exec([]string{"true"}))
	assert.Equal(t, 1, Exec([]string{"false"}))
}

func TestExecIgnoresArguments(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	// arguments are never passed, so "false --version" still fails
	assert.Equal(t, 1, Exec([]string{"false", "--version"}))
}

func TestExecFailures(t *testing.T) {
	assert.Equal(t, -1, Exec(nil))
	assert.Equal(t, -1, Exec([]string{"/nonexistent/definitely-not-here"}))
}
