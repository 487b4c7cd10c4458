package gpio

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"home-voice/internal/domain"
)

const DefaultCommand = "pinctrl"

// Pin wires one switchable device to a GPIO line.
type Pin struct {
	Location string
	Subject  domain.Subject
	Line     int
}

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

type pinKey struct {
	location string
	subject  domain.Subject
}

// Executor drives switch commands through pinctrl. Commands that have no
// wired pin, or that are not switches, are accepted and ignored.
type Executor struct {
	command string
	pins    map[pinKey]int
	run     Runner
	logger  *slog.Logger
}

func NewExecutor(command string, pins []Pin, logger *slog.Logger) *Executor {
	if command == "" {
		command = DefaultCommand
	}
	e := &Executor{
		command: command,
		pins:    make(map[pinKey]int, len(pins)),
		run:     execRunner,
		logger:  logger,
	}
	for _, p := range pins {
		e.pins[pinKey{p.Location, p.Subject}] = p.Line
	}
	return e
}

// WithRunner replaces process execution, mostly for tests.
func (e *Executor) WithRunner(r Runner) *Executor {
	e.run = r
	return e
}

func (e *Executor) Execute(ctx context.Context, cmd domain.Command) error {
	line, ok := e.pins[pinKey{cmd.Location, cmd.Subject}]
	if !ok {
		e.logger.Info("no pin wired, skipping", "command", cmd.String())
		return nil
	}
	if cmd.Action.Family != domain.ActionSwitch {
		e.logger.Info("pin only supports switching, skipping", "command", cmd.String(), "line", line)
		return nil
	}

	level := "dl"
	if cmd.Action.Switch == domain.SwitchOn {
		level = "dh"
	}

	args := []string{"set", strconv.Itoa(line), "op", "pn", level}
	out, err := e.run(ctx, e.command, args...)
	if err != nil {
		return fmt.Errorf("%s %s: %w (%s)", e.command, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}

	e.logger.Info("command executed", "command", cmd.String(), "line", line, "level", level)
	return nil
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}
