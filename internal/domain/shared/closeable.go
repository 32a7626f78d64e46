package shared

// Closeable is implemented by every component that owns a connection,
// goroutine or file handle and must be released on shutdown.
type Closeable interface {
	Close() error
}

// CloseAll closes components in reverse order and returns the first error.
func CloseAll(components ...Closeable) error {
	var first error
	for i := len(components) - 1; i >= 0; i-- {
		if components[i] == nil {
			continue
		}
		if err := components[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
