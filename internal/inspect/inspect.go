// Package inspect writes debug views of emulator state.
package inspect

import (
	"fmt"
	"io"
	"os"

	"github.com/bradleyjkemp/memviz"
)

// WriteGraph writes a Graphviz dot description of the object graph
// reachable from roots.
func WriteGraph(w io.Writer, roots ...interface{}) {
	memviz.Map(w, roots...)
}

// DumpGraph writes the object graph of roots to path.
func DumpGraph(path string, roots ...interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	WriteGraph(f, roots...)
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
