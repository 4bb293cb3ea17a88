package statsview

import "testing"

func TestURL(t *testing.T) {
	s := &Server{address: "localhost:1234"}
	if got := s.URL(); got != "http://localhost:1234/debug/statsview" {
		t.Errorf("URL() = %s", got)
	}
	if !Available() {
		t.Error("stats server should be available")
	}
}
