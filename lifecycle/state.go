// Package lifecycle holds the per-loader-instance state an embedded runtime
// creates when it is loaded: the ordered list of execution paths it searches
// for code.
//
// State is created once with Initialize, attached to a loader instance, and
// read thereafter. It has no mutation API.
package lifecycle

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/wippyai/loader-bridge/cstring"
	"github.com/wippyai/loader-bridge/errors"
	"github.com/wippyai/loader-bridge/host"
)

var validate = validator.New()

// State is the lifecycle state of one loader instance.
type State struct {
	paths []string
}

// Initialize builds state from an ordered list of execution paths. Paths
// must be non-empty and representable as host strings.
func Initialize(paths ...string) (*State, error) {
	if err := validate.Var(paths, "dive,required"); err != nil {
		return nil, errors.Wrap(errors.PhaseLifecycle, errors.KindInvalidInput, err, "execution paths")
	}
	for i, p := range paths {
		if _, err := cstring.Convert(errors.PhaseLifecycle, []string{"execution_paths", strconv.Itoa(i)}, p); err != nil {
			return nil, err
		}
	}
	cp := make([]string, len(paths))
	copy(cp, paths)
	return &State{paths: cp}, nil
}

// ExecutionPaths returns a copy of the paths in search order.
func (s *State) ExecutionPaths() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Find resolves name against the execution paths in order and returns the
// first regular file found. Absolute names are checked as given.
func (s *State) Find(name string) (string, error) {
	if filepath.IsAbs(name) {
		if isFile(name) {
			return name, nil
		}
		return "", errors.NotFound(errors.PhaseLifecycle, "file", name)
	}
	for _, dir := range s.paths {
		candidate := filepath.Join(dir, name)
		if isFile(candidate) {
			return candidate, nil
		}
	}
	return "", errors.NotFound(errors.PhaseLifecycle, "file in execution paths", name)
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

// DataReader is the part of the host that exposes a loader's data slot.
type DataReader interface {
	LoaderData(l host.LoaderHandle) (any, error)
}

// DataStore can also write the data slot.
type DataStore interface {
	DataReader
	SetLoaderData(l host.LoaderHandle, data any) error
}

// Attach stores s as the lifecycle state of loader l. A loader receives
// state once; a second Attach fails.
func Attach(h DataStore, l host.LoaderHandle, s *State) error {
	if s == nil {
		return errors.InvalidInput(errors.PhaseLifecycle, "nil state")
	}
	cur, err := h.LoaderData(l)
	if err != nil {
		return err
	}
	if cur != nil {
		return errors.Duplicate(errors.PhaseLifecycle, "lifecycle state", "")
	}
	return h.SetLoaderData(l, s)
}

// Get returns the state previously attached to l. The second result is
// false when the loader has not been initialized; that is not an error.
func Get(h DataReader, l host.LoaderHandle) (*State, bool) {
	data, err := h.LoaderData(l)
	if err != nil || data == nil {
		return nil, false
	}
	s, ok := data.(*State)
	return s, ok
}
