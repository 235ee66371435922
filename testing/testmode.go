// Package testing flips fundflow into test mode. Test files blank-import it so
// the cmd entrypoints and runtime hooks stay inert under go test.
package testing

import "os"

// must match app.TestModeEnv; importing app here would cycle through its tests.
const testModeEnv = "FUNDFLOW_TEST_MODE"

func init() {
	_ = os.Setenv(testModeEnv, "1")
}
