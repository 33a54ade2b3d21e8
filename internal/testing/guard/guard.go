package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("HARBORSTAY_TEST_MODE") == "" {
			_ = os.Setenv("HARBORSTAY_TEST_MODE", "1")
		}
	})
}
