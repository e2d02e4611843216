package workflow

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"slidescribe/internal/fileutil"
	"slidescribe/internal/services"
)

const lockFileName = ".slidescribe.lock"

// lockOutput takes an exclusive lock on the output directory so two runs
// never write the same document. The returned func releases it.
func lockOutput(dir string) (func(), error) {
	if err := fileutil.EnsureDir(dir); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "extract", "prepare output directory", dir, err)
	}
	lockPath := filepath.Join(dir, lockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "extract", "acquire output lock", lockPath, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "extract", "acquire output lock",
			fmt.Sprintf("another slidescribe run is writing to %s", dir), nil)
	}
	return func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}, nil
}
