package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

type step struct {
	name string
	fn   func() error
}

// teardown releases session resources in reverse order of acquisition. A failing or
// panicking step is logged and does not stop the steps after it.
type teardown struct {
	logger *slog.Logger
	steps  []step
}

func (t *teardown) push(name string, fn func() error) {
	t.steps = append(t.steps, step{name: name, fn: fn})
}

func (t *teardown) run() {
	for i := len(t.steps) - 1; i >= 0; i-- {
		t.runStep(t.steps[i])
	}
	t.steps = nil
}

func (t *teardown) runStep(s step) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("teardown step panicked", slog.String("step", s.name), slog.String("panic", fmt.Sprint(r)))
		}
	}()

	if err := s.fn(); err != nil && !errors.Is(err, context.Canceled) {
		t.logger.Warn("teardown step failed", slog.String("step", s.name), slog.String("error", err.Error()))
		return
	}

	t.logger.Debug("released", slog.String("step", s.name))
}
