package usecase

import (
	"strings"
	"sync"
)

// transcriptBuffer accumulates raw transcript fragments for one capture
// session. The stream delivers incremental pieces of the utterance, so
// fragments are concatenated verbatim, in arrival order.
type transcriptBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *transcriptBuffer) Append(fragment string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.WriteString(fragment)
}

func (b *transcriptBuffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
