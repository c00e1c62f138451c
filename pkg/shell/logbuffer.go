package shell

import (
	"fmt"
	"io"
	"sync"
	"time"

	"chainscrape-go/pkg/models"
)

// LogBuffer is the append-only model behind the log view. Appends may come
// from the engine's event path while the view reads from the update loop,
// so all access is mutex-guarded and arrival order is preserved.
type LogBuffer struct {
	mu    sync.Mutex
	lines []models.LogLine
}

func NewLogBuffer() *LogBuffer {
	return &LogBuffer{}
}

// Append adds a line to the end of the buffer.
func (b *LogBuffer) Append(line models.LogLine) {
	b.mu.Lock()
	b.lines = append(b.lines, line)
	b.mu.Unlock()
}

// Appendf formats and appends a line stamped with the current time.
func (b *LogBuffer) Appendf(format string, v ...interface{}) {
	b.Append(models.LogLine{
		Timestamp: time.Now(),
		Text:      fmt.Sprintf(format, v...),
	})
}

// Snapshot returns a copy of the buffered lines in arrival order.
func (b *LogBuffer) Snapshot() []models.LogLine {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.LogLine, len(b.lines))
	copy(out, b.lines)
	return out
}

// Len returns the number of buffered lines.
func (b *LogBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// Clear empties the buffer. Engine-side history is unaffected.
func (b *LogBuffer) Clear() {
	b.mu.Lock()
	b.lines = nil
	b.mu.Unlock()
}

// WriteTo writes the buffered lines as text, one per line.
func (b *LogBuffer) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, line := range b.Snapshot() {
		n, err := fmt.Fprintf(w, "[%s] %s\n", line.Timestamp.Format("2006-01-02 15:04:05"), line.Text)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
