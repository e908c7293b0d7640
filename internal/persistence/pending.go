package persistence

// Pending is the outcome of a background write
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func settled(err error) *Pending {
	p := newPending()
	p.finish(err)
	return p
}

func (p *Pending) finish(err error) {
	p.err = err
	close(p.done)
}

// Done is closed once the write has settled
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the write has settled and returns its error
func (p *Pending) Wait() error {
	<-p.done
	return p.err
}
