package printer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keelproject/keel/internal/testutil"
)

func TestPrintln(t *testing.T) {
	var buf testutil.SafeBuffer
	p := NewWithOutput(&buf, Settings{})

	p.Println("hello", 42)

	assert.Equal(t, "hello 42\n", buf.String())
}

func TestPrefix(t *testing.T) {
	var buf testutil.SafeBuffer
	p := NewWithOutput(&buf, Settings{Prefix: "[keel]"})

	p.Println("ready")
	p.Printf("workers=%d", 4)

	assert.Equal(t, "[keel] ready\n[keel] workers=4\n", buf.String())
}

func TestConcurrentWritesStayLineAtomic(t *testing.T) {
	var buf testutil.SafeBuffer
	p := NewWithOutput(&buf, Settings{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Println("line")
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, countOf(buf.String(), "line\n"))
}

func countOf(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}
