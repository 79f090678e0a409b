/*
Copyright 2024 BattleLink Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package bridge

import (
	"sync"
	"time"
)

// Line is a raw line received from the controller
type Line struct {
	Text       string
	Seq        uint64
	ReceivedAt time.Time
}

// LineQueue is an unbounded FIFO handing lines from the reader goroutine to
// the dispatching goroutine. Push never waits on the consumer.
type LineQueue struct {
	mu    sync.Mutex
	items []Line
}

// NewLineQueue creates an empty queue
func NewLineQueue() *LineQueue {
	return &LineQueue{}
}

// Push appends a line
func (q *LineQueue) Push(line Line) {
	q.mu.Lock()
	q.items = append(q.items, line)
	q.mu.Unlock()
}

// Drain removes and returns every queued line in arrival order.
// It returns nil when the queue is empty.
func (q *LineQueue) Drain() []Line {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	items := q.items
	q.items = nil
	return items
}

// Len returns the number of queued lines
func (q *LineQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
