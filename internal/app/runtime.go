package app

import (
	"os"
	"sync"
)

// TestModeEnv is set by the fundflow/testing package. Binaries started with it
// exit before touching Postgres or Redis.
const TestModeEnv = "FUNDFLOW_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	return os.Getenv(TestModeEnv) == "1"
})

// InTestMode reports whether the process should skip runtime side effects.
func InTestMode() bool {
	return testMode()
}
