package engine

// Begin opens a group. Deliveries are held until the matching End closes
// the outermost group. Groups nest to any depth.
func (e *Engine) Begin() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.depth++
}

// End closes a group. Closing the outermost group delivers everything
// buffered since it opened.
//
// End without a matching Begin panics.
func (e *Engine) End() {
	nested := e.delivery.lock()
	defer e.delivery.unlock()

	e.mu.Lock()
	if e.depth == 0 {
		e.mu.Unlock()
		panic("engine: End without matching Begin")
	}
	e.depth--
	if e.depth > 0 {
		e.mu.Unlock()
		return
	}
	e.flushLocked()
	e.mu.Unlock()
	if !nested {
		e.queue.drain()
	}
}

// Group runs fn inside a group. The group closes on every exit path,
// including an error return or a panic from fn.
func (e *Engine) Group(fn func() error) error {
	e.Begin()
	defer e.End()
	return fn()
}

// Depth returns the current group nesting depth.
func (e *Engine) Depth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.depth
}
