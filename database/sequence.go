package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// sequence records the highest id ever handed out for a tasks file, so that
// deleting the newest task does not free its id for reuse. It lives next to
// the tasks file as ".<name>.seq" and leaves the task list format untouched.
type sequence struct {
	path string
}

func newSequence(tasksPath string) *sequence {
	dir, name := filepath.Split(tasksPath)
	return &sequence{path: filepath.Join(dir, "."+name+".seq")}
}

// read returns the recorded high-water mark, or 0 if none was recorded yet.
func (q *sequence) read() (int, error) {
	data, err := os.ReadFile(q.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: reading %s: %w", ErrStoreUnavailable, q.path, err)
	}

	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s: corrupt id sequence %q", ErrStoreUnavailable, q.path, strings.TrimSpace(string(data)))
	}
	return n, nil
}

func (q *sequence) write(n int) error {
	if err := writeFileAtomic(q.path, []byte(strconv.Itoa(n)+"\n")); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrStoreUnavailable, q.path, err)
	}
	return nil
}

// raise records n if it is above the current mark.
func (q *sequence) raise(n int) error {
	cur, err := q.read()
	if err != nil {
		return err
	}
	if n <= cur {
		return nil
	}
	return q.write(n)
}
