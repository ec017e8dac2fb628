// Inkpost - Blog Platform with Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkpost

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

// mockService counts how often suture starts it and can fail a fixed
// number of times before it settles into running until canceled.
type mockService struct {
	name       string
	starts     atomic.Int32
	failBudget atomic.Int32
}

func newMockService(name string) *mockService {
	return &mockService{name: name}
}

func (m *mockService) Serve(ctx context.Context) error {
	m.starts.Add(1)
	if m.failBudget.Add(-1) >= 0 {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockService) failTimes(n int32) { m.failBudget.Store(n) }

func (m *mockService) startCount() int32 { return m.starts.Load() }

func (m *mockService) String() string { return m.name }
