package sim

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"
)

func wake(at float64, seq uint64) *PatientWakeEvent {
	return &PatientWakeEvent{baseEvent: baseEvent{time: at, seq: seq}}
}

func TestEventQueue_OrdersByTimeThenSeq(t *testing.T) {
	eq := make(EventQueue, 0)
	heap.Push(&eq, wake(5, 1))
	heap.Push(&eq, wake(0, 4))
	heap.Push(&eq, wake(0, 2))
	heap.Push(&eq, wake(2.5, 3))
	heap.Push(&eq, wake(5, 0))

	var got [][2]float64
	for eq.Len() > 0 {
		ev := eq.PopNext()
		got = append(got, [2]float64{ev.Timestamp(), float64(ev.Seq())})
	}
	want := [][2]float64{{0, 2}, {0, 4}, {2.5, 3}, {5, 0}, {5, 1}}
	assert.Equal(t, want, got)
}

func TestEventQueue_EmptyQueue(t *testing.T) {
	eq := make(EventQueue, 0)
	assert.Nil(t, eq.PopNext())
}
