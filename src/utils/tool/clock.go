package tool

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"
)

// Source of the current time
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// Source of unique ids
type IDGenerator interface {
	New() string
}

// Globally unique, sortable ids
type XidGenerator struct{}

func (XidGenerator) New() string { return xid.New().String() }

// Clock that moves only when told to. Safe for concurrent use.
type StubClock struct {
	mtx sync.Mutex
	now time.Time
}

func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

func (self *StubClock) Now() time.Time {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.now
}

func (self *StubClock) Advance(d time.Duration) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.now = self.now.Add(d)
}

// Returns sequential ids with the given prefix
type SequentialIDGenerator struct {
	mtx     sync.Mutex
	prefix  string
	counter int
}

func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	return &SequentialIDGenerator{prefix: prefix}
}

func (self *SequentialIDGenerator) New() string {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.counter++
	return fmt.Sprintf("%s-%d", self.prefix, self.counter)
}
