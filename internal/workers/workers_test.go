// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"testing"
)

// recordingWorker is a test implementation of the Worker interface that
// appends its id to a shared journal on every lifecycle call.
type recordingWorker struct {
	id      string
	journal *[]string
}

func (w *recordingWorker) Start(_ context.Context) {
	*w.journal = append(*w.journal, "start:"+w.id)
}

func (w *recordingWorker) Stop() {
	*w.journal = append(*w.journal, "stop:"+w.id)
}

func TestWorkers_StartOrderAndReverseStop(t *testing.T) {
	journal := []string{}
	ws := NewWorkers(
		&recordingWorker{id: "monitor", journal: &journal},
		&recordingWorker{id: "driver", journal: &journal},
		&recordingWorker{id: "job", journal: &journal},
	)

	ws.Start(context.Background())
	ws.Stop()

	want := []string{
		"start:monitor", "start:driver", "start:job",
		"stop:job", "stop:driver", "stop:monitor",
	}
	if len(journal) != len(want) {
		t.Fatalf("expected %d lifecycle calls, got %d: %v", len(want), len(journal), journal)
	}
	for i := range want {
		if journal[i] != want[i] {
			t.Errorf("call[%d]: expected %q, got %q", i, want[i], journal[i])
		}
	}
}

func TestWorkers_Empty(t *testing.T) {
	ws := NewWorkers()

	// Should not panic on empty workers list
	ws.Start(context.Background())
	ws.Stop()
}

func TestWorkers_Nil(t *testing.T) {
	ws := &Workers{}

	// Should not panic when workers field is nil
	ws.Start(context.Background())
	ws.Stop()
}

func TestNewWorker_DelegatesToFuncs(t *testing.T) {
	started := false
	stopped := false

	w := NewWorker(
		func(_ context.Context) { started = true },
		func() { stopped = true },
	)

	w.Start(context.Background())
	w.Stop()

	if !started {
		t.Error("expected start func to be called")
	}
	if !stopped {
		t.Error("expected stop func to be called")
	}
}
