// Package guard forces test mode for packages that import it in tests, so no
// runtime side effects leak out of the binary entrypoints.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("TOKOBASE_TEST_MODE") == "" {
			_ = os.Setenv("TOKOBASE_TEST_MODE", "1")
		}
	})
}
