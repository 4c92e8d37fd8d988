package workflow

import (
	"context"
	"errors"
	"sync"

	"github.com/daydemir/postdoc/internal/llm"
	"github.com/daydemir/postdoc/internal/types"
)

// scriptedModel returns queued replies in order and records every request
type scriptedModel struct {
	mu       sync.Mutex
	replies  []*llm.Reply
	err      error
	requests []llm.Request
}

func newScriptedModel(contents ...string) *scriptedModel {
	m := &scriptedModel{}
	for _, c := range contents {
		m.replies = append(m.replies, &llm.Reply{Content: c, Signal: llm.SignalNone})
	}
	return m
}

func (m *scriptedModel) Name() string { return "scripted" }

func (m *scriptedModel) Complete(_ context.Context, req llm.Request) (*llm.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.replies) == 0 {
		return nil, errors.New("scripted model has no more replies")
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	return r, nil
}

type staticPrompts struct{}

func (staticPrompts) Planning() (string, error)       { return "PLANNING SYSTEM", nil }
func (staticPrompts) CodeGeneration() (string, error) { return "CODEGEN SYSTEM", nil }

// fakeImports reports every module in missing as unavailable
type fakeImports struct {
	missing map[string]bool
	seen    [][]string
}

func (f *fakeImports) Check(_ context.Context, modules []string) *types.ImportResults {
	f.seen = append(f.seen, modules)
	res := &types.ImportResults{Modules: modules, Missing: []string{}, Failed: map[string]string{}}
	for _, m := range modules {
		if f.missing[m] {
			res.Missing = append(res.Missing, m)
		}
	}
	res.Success = len(res.Missing) == 0
	return res
}
