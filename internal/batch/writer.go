package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

// writeAtomic writes the output produced by fn to dest through a temporary
// file in the same directory, so dest is either left untouched or replaced
// by a complete file. Transient failures are retried; permission errors and
// cancellation are not.
func writeAtomic(ctx context.Context, dest string, attempts uint, delay time.Duration, fn func(io.Writer) error) error {
	if attempts == 0 {
		attempts = 1
	}

	err := retry.Do(
		func() error {
			return writeOnce(dest, fn)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, fs.ErrPermission) && !errors.Is(err, fs.ErrNotExist)
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, filepath.Base(dest), err)
	}
	return nil
}

func writeOnce(dest string, fn func(io.Writer) error) error {
	dir := filepath.Dir(dest)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(dest), uuid.NewString()))

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	if err := fn(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
