package render

import (
	"slices"

	"github.com/matzehuels/dslstructurizr/pkg/cache"
	"github.com/matzehuels/dslstructurizr/pkg/errors"
)

// ErrDrained is returned when a queue is drained a second time.
var ErrDrained = errors.New(errors.ErrCodeInternal, "render queue already drained")

// Group is the set of diagrams sharing one renderer command line.
// Sources[i] renders to Destinations[i].
type Group struct {
	Args         []string
	Sources      []string
	Destinations []string
}

// Len returns the number of diagrams in the group.
func (g Group) Len() int { return len(g.Sources) }

// Queue collects pending renders grouped by command line.
//
// Groups keep the order in which their command line was first seen and
// diagrams keep their enqueue order within a group. A Queue is owned by a
// single run and is not safe for concurrent use.
type Queue struct {
	index   map[string]int
	groups  []Group
	drained bool
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{index: make(map[string]int)}
}

// Enqueue adds a render request to the group for its command line.
func (q *Queue) Enqueue(req cache.Request) {
	sig := req.Signature()
	i, ok := q.index[sig]
	if !ok {
		i = len(q.groups)
		q.index[sig] = i
		q.groups = append(q.groups, Group{Args: slices.Clone(req.Args)})
	}
	g := &q.groups[i]
	g.Sources = append(g.Sources, req.Source)
	g.Destinations = append(g.Destinations, req.Destination)
}

// Len returns the number of queued diagrams.
func (q *Queue) Len() int {
	n := 0
	for _, g := range q.groups {
		n += g.Len()
	}
	return n
}

// Groups returns the number of distinct command lines queued.
func (q *Queue) Groups() int { return len(q.groups) }

// Drain hands out the queued groups and empties the queue. A queue can be
// drained once; later calls return ErrDrained.
func (q *Queue) Drain() ([]Group, error) {
	if q.drained {
		return nil, ErrDrained
	}
	q.drained = true
	groups := q.groups
	q.groups = nil
	clear(q.index)
	return groups, nil
}
