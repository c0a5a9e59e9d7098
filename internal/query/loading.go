package query

import "sync"

// Kind is a fetch category with its own loading flag.
type Kind string

const (
	KindSummary      Kind = "summary"
	KindTransactions Kind = "transactions"
)

// Loading tracks in-flight requests per kind. A kind is loading while at
// least one of its requests has not completed.
type Loading struct {
	mu       sync.Mutex
	inflight map[Kind]int
}

func NewLoading() *Loading {
	return &Loading{inflight: map[Kind]int{}}
}

// Begin marks one request of kind as started. The returned func marks it
// done and is safe to call more than once.
func (l *Loading) Begin(kind Kind) func() {
	l.mu.Lock()
	l.inflight[kind]++
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			if l.inflight[kind] > 0 {
				l.inflight[kind]--
			}
			l.mu.Unlock()
		})
	}
}

func (l *Loading) Is(kind Kind) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight[kind] > 0
}
