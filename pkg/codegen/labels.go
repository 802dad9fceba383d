package codegen

import (
	"fmt"
	"sync/atomic"
)

// labelCounter is process-wide: every Generator in the process draws from
// the same sequence, so two functions compiled concurrently (or a compiler
// driver invoked twice in one process, as in tests) never emit colliding
// labels.
var labelCounter uint64

// labeler hands out unique label names "L<n>" from the shared process
// counter.
type labeler struct{}

// newLabeler returns a labeler drawing from the shared counter.
func newLabeler() *labeler {
	return &labeler{}
}

// Next returns the next unique label name.
func (l *labeler) Next() string {
	n := atomic.AddUint64(&labelCounter, 1) - 1
	return fmt.Sprintf("L%d", n)
}
