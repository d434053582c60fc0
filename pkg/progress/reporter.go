// SPDX-License-Identifier: AGPL-3.0-or-later

// Package progress implements the Progress Reporter: a tree-grouped,
// periodically redrawn rendering of Task states. Rendering is purely
// derivative of task state — the reporter never mutates a Task.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"bqport/pkg/task"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// node is one level of the tree built by splitting task names on "/".
type node struct {
	name     string
	task     *task.Task
	children map[string]*node
	order    []string
}

func newNode(name string) *node {
	return &node{name: name, children: map[string]*node{}}
}

func (n *node) child(name string) *node {
	c, ok := n.children[name]
	if !ok {
		c = newNode(name)
		n.children[name] = c
		n.order = append(n.order, name)
	}
	return c
}

// Reporter renders a tree of Task states to Out on a fixed interval
// while any task is non-terminal.
type Reporter struct {
	Out      io.Writer
	Interval time.Duration
	frame    int
}

// New creates a Reporter writing to stdout on a ~100ms cadence.
func New() *Reporter {
	return &Reporter{Out: os.Stdout, Interval: 100 * time.Millisecond}
}

// Watch redraws the tree built from tasks every Interval until every
// task is terminal (the last frame drawn shows them all terminal) or ctx
// is canceled, in which case it returns without drawing another frame.
func (r *Reporter) Watch(ctx context.Context, tasks []*task.Task) {
	ticker := time.NewTicker(r.interval())
	defer ticker.Stop()

	for {
		r.render(tasks)
		if allDone(tasks) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.frame++
		}
	}
}

func (r *Reporter) interval() time.Duration {
	if r.Interval <= 0 {
		return 100 * time.Millisecond
	}
	return r.Interval
}

func allDone(tasks []*task.Task) bool {
	for _, t := range tasks {
		if !t.Done() {
			return false
		}
	}
	return true
}

func (r *Reporter) render(tasks []*task.Task) {
	root := newNode("")
	for _, t := range tasks {
		cur := root
		for _, seg := range strings.Split(t.Name, "/") {
			cur = cur.child(seg)
		}
		cur.task = t
	}

	var b strings.Builder
	r.renderNode(&b, root, 0)
	fmt.Fprint(r.Out, "\033[H\033[2J")
	fmt.Fprint(r.Out, b.String())
}

func (r *Reporter) renderNode(b *strings.Builder, n *node, depth int) {
	if n.name != "" {
		b.WriteString(strings.Repeat("  ", depth-1))
		b.WriteString(r.glyph(n.task))
		b.WriteString(" ")
		b.WriteString(n.name)

		if n.task != nil {
			switch n.task.Status() {
			case task.StatusSuccess:
				if msg := n.task.Message(); msg != "" {
					b.WriteString(dimStyle.Render(fmt.Sprintf(" (%s)", msg)))
				}
			case task.StatusFailed:
				b.WriteString("\n")
				b.WriteString(strings.Repeat("  ", depth))
				if err := n.task.Err(); err != nil {
					b.WriteString(failedStyle.Render(err.Error()))
				}
			}
		}
		b.WriteString("\n")
	}

	children := append([]string(nil), n.order...)
	sort.Strings(children)
	for _, name := range children {
		r.renderNode(b, n.children[name], depth+1)
	}
}

// glyph renders the status glyph for a task: pending is invisible,
// running shows the current spinner frame, success a check, failed a
// cross.
func (r *Reporter) glyph(t *task.Task) string {
	if t == nil {
		return dimStyle.Render("·")
	}
	switch t.Status() {
	case task.StatusPending:
		return " "
	case task.StatusRunning:
		return runningStyle.Render(spinnerFrames[r.frame%len(spinnerFrames)])
	case task.StatusSuccess:
		return successStyle.Render("✓")
	case task.StatusFailed:
		return failedStyle.Render("✗")
	default:
		return " "
	}
}
