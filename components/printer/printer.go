// Package printer provides a writer-backed output component for manifests
// that want a shared, prefixed text sink.
package printer

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/keelproject/keel/internal/catalog"
)

// Settings configures the printed line prefix.
type Settings struct {
	Prefix string `hcl:"prefix,optional"`
}

// Printer writes formatted lines to its output. It is safe for concurrent
// use.
type Printer struct {
	mu     sync.Mutex
	out    io.Writer
	prefix string
}

// New returns a Printer writing to standard output.
func New(s Settings) *Printer {
	return NewWithOutput(os.Stdout, s)
}

// NewWithOutput returns a Printer writing to the given writer.
func NewWithOutput(out io.Writer, s Settings) *Printer {
	return &Printer{out: out, prefix: s.Prefix}
}

// Println writes one line, applying the configured prefix.
func (p *Printer) Println(args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.prefix != "" {
		fmt.Fprint(p.out, p.prefix, " ")
	}
	fmt.Fprintln(p.out, args...)
}

// Printf writes one formatted line, applying the configured prefix.
func (p *Printer) Printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.prefix != "" {
		fmt.Fprint(p.out, p.prefix, " ")
	}
	fmt.Fprintf(p.out, format, args...)
	fmt.Fprintln(p.out)
}

// Module implements the catalog.Module interface for this package.
type Module struct{}

// Register registers the printer kind with the catalog.
func (m *Module) Register(c *catalog.Catalog) {
	c.Register("printer", New,
		catalog.WithSettings(Settings{}),
		catalog.WithDescription("writer-backed line printer"),
	)
}
