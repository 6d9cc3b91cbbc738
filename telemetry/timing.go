package telemetry

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/robinvdvleuten/beancount-forecast/output"
)

// SlowThreshold marks operations that are highlighted in the report.
const SlowThreshold = 100 * time.Millisecond

// TimingCollector builds a tree of timed operations.
type TimingCollector struct {
	mu      sync.Mutex
	roots   []*timerNode
	current *timerNode
	log     zerolog.Logger
	now     func() time.Time
}

type timerNode struct {
	name     string
	start    time.Time
	end      time.Time
	children []*timerNode
	parent   *timerNode
}

func (n *timerNode) duration() time.Duration {
	if n.end.IsZero() {
		return 0
	}
	return n.end.Sub(n.start)
}

// TimingOption configures a TimingCollector.
type TimingOption func(*TimingCollector)

// WithLogger logs every finished operation at debug level.
func WithLogger(log zerolog.Logger) TimingOption {
	return func(c *TimingCollector) {
		c.log = log
	}
}

// NewTimingCollector creates a new timing collector.
func NewTimingCollector(opts ...TimingOption) *TimingCollector {
	c := &TimingCollector{log: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins timing an operation. While another Start timer is running the
// new one nests under it.
func (c *TimingCollector) Start(name string) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	node := &timerNode{name: name, start: c.now()}
	if c.current == nil {
		c.roots = append(c.roots, node)
	} else {
		node.parent = c.current
		c.current.children = append(c.current.children, node)
	}
	c.current = node

	return &timingTimer{collector: c, node: node, tracked: true}
}

// Operations returns the names of all recorded operations in start order,
// children after their parent.
func (c *TimingCollector) Operations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var names []string
	var walk func(nodes []*timerNode)
	walk = func(nodes []*timerNode) {
		for _, n := range nodes {
			names = append(names, n.name)
			walk(n.children)
		}
	}
	walk(c.roots)
	return names
}

// Report writes the timing tree:
//
//	forecast: 12ms
//	├─ forecast.scan: 1ms
//	└─ forecast.generate: 9ms
func (c *TimingCollector) Report(w io.Writer, styles *output.Styles) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, root := range c.roots {
		name, timing := root.name, formatDuration(root.duration())
		if styles != nil {
			name = styles.Keyword(name)
		}
		_, _ = fmt.Fprintf(w, "%s: %s\n", name, timing)

		for i, child := range root.children {
			formatNode(w, child, "", i == len(root.children)-1, styles)
		}
	}
}

func formatNode(w io.Writer, node *timerNode, prefix string, isLast bool, styles *output.Styles) {
	duration := node.duration()

	branch, extension := "├─ ", "│  "
	if isLast {
		branch, extension = "└─ ", "   "
	}

	timing := formatDuration(duration)
	if styles != nil {
		if duration >= SlowThreshold {
			timing = styles.Warning(timing)
		} else {
			timing = styles.Dim(timing)
		}
		_, _ = fmt.Fprintf(w, "%s%s: %s\n", styles.Dim(prefix+branch), node.name, timing)
	} else {
		_, _ = fmt.Fprintf(w, "%s%s%s: %s\n", prefix, branch, node.name, timing)
	}

	for i, child := range node.children {
		formatNode(w, child, prefix+extension, i == len(node.children)-1, styles)
	}
}

// formatDuration shows milliseconds below one second and seconds above.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", float64(d)/float64(time.Second))
}

type timingTimer struct {
	collector *TimingCollector
	node      *timerNode
	tracked   bool // Started through Start, so it moves the collector's cursor
}

// End stops the timer. Ending a timer twice keeps the first end time.
func (t *timingTimer) End() {
	c := t.collector
	c.mu.Lock()
	defer c.mu.Unlock()

	if !t.node.end.IsZero() {
		return
	}
	t.node.end = c.now()

	if t.tracked && c.current == t.node {
		c.current = t.node.parent
	}

	c.log.Debug().
		Str("operation", t.node.name).
		Dur("duration", t.node.duration()).
		Msg("operation finished")
}

// Child creates a timer nested under this one. Children are safe to start and
// end from other goroutines.
func (t *timingTimer) Child(name string) Timer {
	c := t.collector
	c.mu.Lock()
	defer c.mu.Unlock()

	node := &timerNode{name: name, start: c.now(), parent: t.node}
	t.node.children = append(t.node.children, node)

	return &timingTimer{collector: c, node: node}
}
