// Package naming renders output file names and resolves duplicate output
// paths within a batch.
package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Resolver tracks the output paths claimed by jobs and resolves duplicates
// by appending "-N" to the stem. Paths are owned by job, not by source, so
// two jobs reading the same source still get distinct outputs. All methods are
// goroutine-safe.
type Resolver struct {
	mu       sync.Mutex
	owners   map[string]string // output path -> owning job
	counters map[string]int    // requested path -> next suffix to try
	exists   func(path string) bool
}

// NewResolver creates a resolver. When exists is non-nil, paths for which it
// reports true are treated as already taken by a file on disk.
func NewResolver(exists func(path string) bool) *Resolver {
	return &Resolver{
		owners:   make(map[string]string),
		counters: make(map[string]int),
		exists:   exists,
	}
}

// FileExists reports whether something is present at path.
func FileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// Resolve returns the final output path for the job identified by owner. A
// free path, or one already owned by owner, is returned unchanged; otherwise
// the first free "stem-N.ext" variant is claimed and returned.
func (r *Resolver) Resolve(owner, requested string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.free(owner, requested) {
		r.owners[requested] = owner
		return requested
	}

	dir := filepath.Dir(requested)
	base := filepath.Base(requested)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	counter := r.counters[requested]
	if counter == 0 {
		counter = 1
	}
	for {
		candidate := filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, counter, ext))
		if r.free(owner, candidate) {
			r.counters[requested] = counter + 1
			r.owners[candidate] = owner
			return candidate
		}
		counter++
	}
}

// Claimed returns the number of distinct output paths handed out.
func (r *Resolver) Claimed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.owners)
}

func (r *Resolver) free(owner, path string) bool {
	if current, ok := r.owners[path]; ok {
		return current == owner
	}
	return r.exists == nil || !r.exists(path)
}
