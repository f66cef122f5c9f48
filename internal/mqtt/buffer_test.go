package mqtt

import (
	"testing"
)

func TestOutboxEmptyDrain(t *testing.T) {
	o := newOutbox(10)
	got, dropped := o.drain()
	if got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
	if dropped != 0 {
		t.Errorf("expected 0 dropped, got %d", dropped)
	}
}

func TestOutboxPushAndDrain(t *testing.T) {
	o := newOutbox(10)
	for i := 0; i < 5; i++ {
		o.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	if o.len() != 5 {
		t.Errorf("expected len 5, got %d", o.len())
	}

	got, _ := o.drain()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}

	// Second drain should be empty
	got2, _ := o.drain()
	if got2 != nil {
		t.Errorf("expected nil from second drain, got %d items", len(got2))
	}
}

func TestOutboxOverflowDropsOldest(t *testing.T) {
	capacity := 5
	o := newOutbox(capacity)

	// Push capacity+3 items (0..7), outbox keeps the most recent 5 (3..7)
	for i := 0; i < capacity+3; i++ {
		o.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}

	got, dropped := o.drain()
	if len(got) != capacity {
		t.Fatalf("expected %d items, got %d", capacity, len(got))
	}
	if dropped != 3 {
		t.Errorf("expected 3 dropped, got %d", dropped)
	}
	for i := 0; i < capacity; i++ {
		want := byte(i + 3)
		if got[i].payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, got[i].payload[0])
		}
	}

	_, dropped = o.drain()
	if dropped != 0 {
		t.Errorf("expected dropped count reset after drain, got %d", dropped)
	}
}

func TestOutboxRetainedReplacesSameTopic(t *testing.T) {
	o := newOutbox(10)
	o.push(bufferedMsg{topic: "a", payload: []byte("a1"), retained: true})
	o.push(bufferedMsg{topic: "e", payload: []byte("e1")})
	o.push(bufferedMsg{topic: "a", payload: []byte("a2"), retained: true})
	o.push(bufferedMsg{topic: "e", payload: []byte("e2")})

	got, _ := o.drain()
	want := []string{"e1", "a2", "e2"}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(got))
	}
	for i, w := range want {
		if string(got[i].payload) != w {
			t.Errorf("item %d: expected %s, got %s", i, w, got[i].payload)
		}
	}
}

func TestOutboxRetainedDoesNotReplaceOtherTopics(t *testing.T) {
	o := newOutbox(10)
	o.push(bufferedMsg{topic: "a", payload: []byte("a1"), retained: true})
	o.push(bufferedMsg{topic: "s", payload: []byte("s1"), retained: true})
	o.push(bufferedMsg{topic: "a", payload: []byte("a2")})

	if o.len() != 3 {
		t.Errorf("expected 3 items, got %d", o.len())
	}
}

func TestOutboxMultipleCycles(t *testing.T) {
	o := newOutbox(3)
	for cycle := 0; cycle < 3; cycle++ {
		for i := 0; i < 4; i++ {
			o.push(bufferedMsg{topic: "t", payload: []byte{byte(cycle*10 + i)}})
		}
		got, dropped := o.drain()
		if len(got) != 3 || dropped != 1 {
			t.Fatalf("cycle %d: expected 3 items and 1 dropped, got %d and %d", cycle, len(got), dropped)
		}
		if got[0].payload[0] != byte(cycle*10+1) {
			t.Errorf("cycle %d: expected oldest kept %d, got %d", cycle, cycle*10+1, got[0].payload[0])
		}
	}
}

func TestOutboxRequeueGoesFirst(t *testing.T) {
	o := newOutbox(10)
	o.push(bufferedMsg{topic: "events", payload: []byte{3}})
	o.requeue([]bufferedMsg{
		{topic: "events", payload: []byte{1}},
		{topic: "events", payload: []byte{2}},
	})

	got, _ := o.drain()
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	for i, m := range got {
		if m.payload[0] != byte(i+1) {
			t.Errorf("item %d: expected payload %d, got %d", i, i+1, m.payload[0])
		}
	}
}

func TestOutboxRequeueSkipsSupersededRetained(t *testing.T) {
	o := newOutbox(10)
	o.push(bufferedMsg{topic: "avail", payload: []byte("new"), retained: true})
	o.requeue([]bufferedMsg{{topic: "avail", payload: []byte("old"), retained: true}})

	got, _ := o.drain()
	if len(got) != 1 || string(got[0].payload) != "new" {
		t.Errorf("expected only the newer retained message, got %+v", got)
	}
}

func TestOutboxRequeueRespectsCapacity(t *testing.T) {
	o := newOutbox(2)
	o.push(bufferedMsg{topic: "t", payload: []byte{3}})
	o.requeue([]bufferedMsg{{topic: "t", payload: []byte{1}}, {topic: "t", payload: []byte{2}}})

	got, dropped := o.drain()
	if len(got) != 2 || got[0].payload[0] != 2 || got[1].payload[0] != 3 {
		t.Errorf("expected [2 3], got %+v", got)
	}
	if dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", dropped)
	}
}
