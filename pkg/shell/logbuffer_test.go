package shell

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainscrape-go/pkg/models"
)

func TestLogBufferPreservesOrder(t *testing.T) {
	b := NewLogBuffer()
	for i := 0; i < 100; i++ {
		b.Append(models.LogLine{Timestamp: time.Now(), Text: fmt.Sprintf("line %d", i)})
	}

	lines := b.Snapshot()
	require.Len(t, lines, 100)
	for i, line := range lines {
		assert.Equal(t, fmt.Sprintf("line %d", i), line.Text)
	}
}

func TestLogBufferConcurrentAppend(t *testing.T) {
	b := NewLogBuffer()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				b.Appendf("goroutine %d line %d", g, i)
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 400, b.Len())
}

func TestLogBufferClear(t *testing.T) {
	b := NewLogBuffer()
	b.Appendf("a")
	b.Appendf("b")

	b.Clear()

	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Snapshot())
}

func TestLogBufferWriteTo(t *testing.T) {
	b := NewLogBuffer()
	b.Append(models.LogLine{
		Timestamp: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
		Text:      "scraped https://example.com/a",
	})

	var buf bytes.Buffer
	n, err := b.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, "[2026-01-02 15:04:05] scraped https://example.com/a\n", buf.String())
}
