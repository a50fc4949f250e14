//go:build basic || database

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedMRIPath holds the path to a shared mri binary built once for all tests.
	sharedMRIPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getMRIBinary returns the path to the mri binary, building it once if needed.
func getMRIBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		// Create a temp directory for the binary
		var err error
		tempDir, err = os.MkdirTemp("", "mri-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		mriPath := filepath.Join(tempDir, "mri")
		buildCmd := exec.Command("go", "build", "-o", mriPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if out, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build mri: %v\n%s", err, out))
		}

		sharedMRIPath = mriPath
	})

	return sharedMRIPath
}

// testdataPath returns the absolute path of a file under testdata.
func testdataPath(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)
	return path
}

// runMRICommand runs the mri binary from the project root with extra env
// and returns its stdout.
func runMRICommand(t *testing.T, env []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getMRIBinary(), args...)
	cmd.Dir = "../" // Run from project root
	cmd.Env = append(os.Environ(), env...)
	output, err := cmd.Output()
	if err != nil {
		var stderr string
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		t.Logf("Command failed: %s\nStdout: %s\nStderr: %s", cmd.String(), string(output), stderr)
		return string(output), err
	}
	return string(output), nil
}

// runSprintFlow builds three sprints and reads them back through every time-travel command.
func runSprintFlow(t *testing.T, env []string) {
	t.Helper()

	_, err := runMRICommand(t, env, "store", "clear")
	require.NoError(t, err)

	for _, batch := range []string{"sprint1.json", "sprint2.yaml"} {
		_, err = runMRICommand(t, env, "build", testdataPath(t, batch))
		require.NoError(t, err)
	}
	_, err = runMRICommand(t, env, "build", testdataPath(t, "sprint3.csv"), "--repo", "acme/api", "--sprint", "3")
	require.NoError(t, err)

	// A second build of the same sprint is rejected.
	_, err = runMRICommand(t, env, "build", testdataPath(t, "sprint1.json"))
	require.Error(t, err, "a second build of the same sprint must fail")

	for _, args := range [][]string{
		{"latest", "--repo", "acme/api"},
		{"show", "--repo", "acme/api", "--sprint", "2"},
		{"range", "--repo", "acme/api", "--from", "1", "--to", "3"},
		{"history", "--repo", "acme/api", "--limit", "2"},
		{"store", "status"},
	} {
		_, err = runMRICommand(t, env, args...)
		require.NoError(t, err)
	}
}
