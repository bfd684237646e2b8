// Package directory aggregates accepted method identities into an ordered,
// deduplicated assembly -> type -> method tree.
package directory

import "sync"

const defaultBacklog = 64

type entry struct {
	assembly string
	typeName string
	method   string
}

// Directory is owned by a single goroutine that holds the tree exclusively;
// callers hand entries to it over a channel. It is safe for concurrent use.
type Directory struct {
	in      chan entry
	stop    chan struct{}
	stopped chan struct{}
	result  Snapshot

	closeOnce sync.Once
}

// New starts the owning goroutine. Close must be called to release it.
func New() *Directory {
	d := &Directory{
		in:      make(chan entry, defaultBacklog),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go d.run()
	return d
}

// Record adds method under (assembly, typeName), creating the path if
// needed. Recording the same triple again has no effect. Records issued
// after Close are dropped.
func (d *Directory) Record(assembly, typeName, method string) {
	select {
	case <-d.stopped:
		return
	default:
	}
	select {
	case d.in <- entry{assembly: assembly, typeName: typeName, method: method}:
	case <-d.stopped:
	}
}

// Close stops the owner after it has taken every entry already handed over
// and returns the settled tree. Further calls return the same snapshot.
func (d *Directory) Close() Snapshot {
	d.closeOnce.Do(func() {
		close(d.stop)
		<-d.stopped
	})
	return d.result
}

func (d *Directory) run() {
	defer close(d.stopped)

	t := newTree()
	for {
		select {
		case e := <-d.in:
			t.add(e)
		case <-d.stop:
			for {
				select {
				case e := <-d.in:
					t.add(e)
				default:
					d.result = t.snapshot()
					return
				}
			}
		}
	}
}
