package bridge

import (
	"strconv"
	"testing"
)

func TestQueueDrainPreservesOrder(t *testing.T) {
	q := NewLineQueue()
	if lines := q.Drain(); lines != nil {
		t.Fatalf("expected nil from empty queue, got %v", lines)
	}

	for i, text := range []string{"L1", "L2", "L3"} {
		q.Push(Line{Text: text, Seq: uint64(i + 1)})
	}
	lines := q.Drain()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i, want := range []string{"L1", "L2", "L3"} {
		if lines[i].Text != want {
			t.Errorf("position %d: expected %s, got=%s", i, want, lines[i].Text)
		}
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue after drain, got %d", q.Len())
	}
}

func TestQueueOrderUnderContention(t *testing.T) {
	const total = 5000
	q := NewLineQueue()

	go func() {
		for i := 1; i <= total; i++ {
			q.Push(Line{Text: strconv.Itoa(i), Seq: uint64(i)})
		}
	}()

	var next uint64 = 1
	for next <= total {
		for _, line := range q.Drain() {
			if line.Seq != next {
				t.Fatalf("expected seq %d, got %d", next, line.Seq)
			}
			next++
		}
	}
}
