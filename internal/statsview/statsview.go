// Package statsview serves live Go runtime charts (heap, goroutines, GC
// pauses) over HTTP while the emulator runs.
package statsview

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// DefaultAddress is used when no address is configured
const DefaultAddress = "localhost:18066"

const url = "/debug/statsview"

// Server is a running stats server
type Server struct {
	address string
	mgr     *statsview.ViewManager
}

// Launch starts the stats server on address in the background and
// reports the URL to output.
func Launch(address string, output io.Writer) *Server {
	if address == "" {
		address = DefaultAddress
	}

	viewer.SetConfiguration(viewer.WithAddr(address))
	s := &Server{address: address, mgr: statsview.New()}
	go s.mgr.Start()

	if output != nil {
		fmt.Fprintf(output, "stats server available at %s\n", s.URL())
	}
	return s
}

// URL returns the page serving the charts
func (s *Server) URL() string {
	return fmt.Sprintf("http://%s%s", s.address, url)
}

// Stop shuts the server down
func (s *Server) Stop() {
	s.mgr.Stop()
}

// Available reports whether the stats server is compiled in
func Available() bool {
	return true
}
