package main

import (
	"context"
	"sync"

	"github.com/prisma-ml-labs/lattice-go/v1/lattice"
)

// stubClient is an in-memory lattice.Client. Unset funcs return zero values.
type stubClient struct {
	mu    sync.Mutex
	calls []string

	add      func(req lattice.AddRequest) (lattice.AddResult, error)
	progress func(jobID string) (float64, error)
	details  func(jobID string) (map[string]interface{}, error)
	search   func(req lattice.SearchRequest) ([]map[string]interface{}, error)
	list     func(req lattice.ListRequest) (map[string]interface{}, error)
	clear    func(req lattice.ClearRequest) (map[string]interface{}, error)
}

var _ lattice.Client = (*stubClient)(nil)

func (s *stubClient) record(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

func (s *stubClient) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *stubClient) Add(_ context.Context, req lattice.AddRequest) (lattice.AddResult, error) {
	s.record("add")
	if s.add == nil {
		return lattice.AddResult{}, nil
	}
	return s.add(req)
}

func (s *stubClient) AddText(ctx context.Context, text string) (string, error) {
	res, err := s.Add(ctx, lattice.AddRequest{Text: &text, Async: lattice.Bool(true)})
	return res.JobID, err
}

func (s *stubClient) AddSource(ctx context.Context, source string) (string, error) {
	res, err := s.Add(ctx, lattice.AddRequest{Source: &source, Async: lattice.Bool(true)})
	return res.JobID, err
}

func (s *stubClient) Progress(_ context.Context, jobID string) (float64, error) {
	s.record("progress:" + jobID)
	if s.progress == nil {
		return 0, nil
	}
	return s.progress(jobID)
}

func (s *stubClient) ProgressDetails(_ context.Context, jobID string) (map[string]interface{}, error) {
	s.record("details:" + jobID)
	if s.details == nil {
		return map[string]interface{}{}, nil
	}
	return s.details(jobID)
}

func (s *stubClient) Search(_ context.Context, req lattice.SearchRequest) ([]map[string]interface{}, error) {
	s.record("search")
	if s.search == nil {
		return []map[string]interface{}{}, nil
	}
	return s.search(req)
}

func (s *stubClient) List(_ context.Context, req lattice.ListRequest) (map[string]interface{}, error) {
	s.record("list")
	if s.list == nil {
		return map[string]interface{}{}, nil
	}
	return s.list(req)
}

func (s *stubClient) Clear(_ context.Context, req lattice.ClearRequest) (map[string]interface{}, error) {
	s.record("clear")
	if s.clear == nil {
		return map[string]interface{}{}, nil
	}
	return s.clear(req)
}
