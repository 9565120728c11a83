// Package writer persists encoded CNAB byte streams.
package writer

import (
	"fmt"
	"io"
	"os"
)

// CNABWriter writes an encoded CNAB240 stream to its destination.
type CNABWriter struct{}

// WriteToFile writes the CNAB bytes to path, creating or truncating it.
func (w *CNABWriter) WriteToFile(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := w.Write(f, data); err != nil {
		return err
	}
	return f.Close()
}

// Write copies the CNAB bytes to the given writer.
func (w *CNABWriter) Write(out io.Writer, data []byte) error {
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("failed to write CNAB stream: %w", err)
	}
	return nil
}
