package engine

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// ownerLock is a mutex the holding goroutine may acquire again.
//
// The engine takes it around every flush and the delivery that follows, so
// deliveries for one document never overlap and run on the goroutine whose
// mutation produced them. A subscriber callback that mutates the document
// is on the holding goroutine and re-enters instead of deadlocking.
type ownerLock struct {
	mu    sync.Mutex
	free  *sync.Cond
	owner uint64
	depth int
}

func newOwnerLock() *ownerLock {
	l := &ownerLock{}
	l.free = sync.NewCond(&l.mu)
	return l
}

// lock acquires l and reports whether the calling goroutine already held it.
func (l *ownerLock) lock() (reentered bool) {
	id := goroutineID()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.depth > 0 && l.owner == id {
		l.depth++
		return true
	}
	for l.depth > 0 {
		l.free.Wait()
	}
	l.owner = id
	l.depth = 1
	return false
}

// unlock releases one level of l.
func (l *ownerLock) unlock() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.depth--
	if l.depth == 0 {
		l.owner = 0
		l.free.Signal()
	}
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the current goroutine's id from the header line of its
// stack trace ("goroutine 42 [running]:").
func goroutineID() uint64 {
	var buf [64]byte
	b := bytes.TrimPrefix(buf[:runtime.Stack(buf[:], false)], goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		panic("engine: cannot parse goroutine id from " + strconv.Quote(string(b)))
	}
	return id
}
