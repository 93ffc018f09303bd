package gateway

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
)

// StubRunner records commands instead of running them. Tools not listed in Paths are absent.
type StubRunner struct {
	Paths    map[string]string
	Statuses map[string]int
	Calls    []Command
	mux      sync.Mutex
}

func NewStubRunner(tools ...string) *StubRunner {
	s := StubRunner{Paths: map[string]string{}, Statuses: map[string]int{}}

	for _, t := range tools {
		s.Paths[t] = "/usr/bin/" + t
	}

	return &s
}

func (s *StubRunner) LookPath(name string) (string, error) {
	if p, ok := s.Paths[name]; ok {
		return p, nil
	}

	return "", fmt.Errorf("%w: %s", exec.ErrNotFound, name)
}

func (s *StubRunner) Run(ctx context.Context, c Command) (int, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	s.Calls = append(s.Calls, c)

	if err := ctx.Err(); err != nil {
		return -1, err
	}

	for name, path := range s.Paths {
		if path == c.Name {
			return s.Statuses[name], nil
		}
	}

	return s.Statuses[c.Name], nil
}

// Invoked returns the calls as "name arg..." lines with the tool's bare name.
func (s *StubRunner) Invoked() []string {
	s.mux.Lock()
	defer s.mux.Unlock()

	out := make([]string, 0, len(s.Calls))

	for _, c := range s.Calls {
		name := c.Name
		for tool, path := range s.Paths {
			if path == c.Name {
				name = tool
			}
		}

		out = append(out, Command{Name: name, Args: c.Args}.String())
	}

	return out
}
