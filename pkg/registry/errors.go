package registry

import "fmt"

// RegistryError describes a failure in registry persistence.
type RegistryError struct {
	Op   string
	Path string
	Err  error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry %s failed for %q: %v", e.Op, e.Path, e.Err)
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

// newError creates a RegistryError.
func newError(op, path string, err error) *RegistryError {
	return &RegistryError{Op: op, Path: path, Err: err}
}
