package session

import (
	"slices"
	"testing"
)

func TestTimeoutIndex_OrderedInsert(t *testing.T) {
	ix := NewTimeoutIndex()
	a, b, c := &Entry{Name: "a"}, &Entry{Name: "b"}, &Entry{Name: "c"}

	if !ix.Insert(KindExpire, 300, a) {
		t.Fatal("first insert should create a bucket")
	}
	ix.Insert(KindExpire, 100, b)
	ix.Insert(KindMax, 200, c)
	if ix.Insert(KindMax, 300, a) {
		t.Fatal("insert into existing bucket should not create one")
	}

	if got, want := ix.Timestamps(), []int64{100, 200, 300}; !slices.Equal(got, want) {
		t.Fatalf("Timestamps = %v, want %v", got, want)
	}
	if !ix.Has(KindExpire, 300, a) || !ix.Has(KindMax, 300, a) {
		t.Fatal("a should hold both memberships at 300")
	}
	if ix.Has(KindExpire, 200, c) {
		t.Fatal("c is only a max member at 200")
	}
}

func TestTimeoutIndex_RemoveDropsEmptyBucket(t *testing.T) {
	ix := NewTimeoutIndex()
	a, b := &Entry{}, &Entry{}
	ix.Insert(KindExpire, 10, a)
	ix.Insert(KindMax, 10, b)

	ix.Remove(KindExpire, 10, a)
	if ix.Len() != 1 {
		t.Fatalf("bucket with a remaining member must stay, len = %d", ix.Len())
	}
	ix.Remove(KindMax, 10, b)
	if ix.Len() != 0 {
		t.Fatalf("empty bucket must be dropped, len = %d", ix.Len())
	}

	// Removing from a missing bucket is a no-op.
	ix.Remove(KindMax, 99, b)
}

func TestTimeoutIndex_Move(t *testing.T) {
	ix := NewTimeoutIndex()
	a := &Entry{}
	ix.Insert(KindExpire, 10, a)
	ix.Insert(KindMax, 50, a)

	if ix.Move(KindExpire, 10, 10, a) {
		t.Fatal("moving to the same timestamp is a no-op")
	}
	if !ix.Move(KindExpire, 10, 30, a) {
		t.Fatal("move to a new timestamp should create a bucket")
	}
	if got, want := ix.Timestamps(), []int64{30, 50}; !slices.Equal(got, want) {
		t.Fatalf("Timestamps = %v, want %v", got, want)
	}
	if ix.Move(KindExpire, 30, 50, a) {
		t.Fatal("move into the existing max bucket should not create one")
	}
	if got, want := ix.Timestamps(), []int64{50}; !slices.Equal(got, want) {
		t.Fatalf("Timestamps = %v, want %v", got, want)
	}
}

func TestTimeoutIndex_DueStopsAtFirstFutureBucket(t *testing.T) {
	ix := NewTimeoutIndex()
	early, both, late := &Entry{Name: "early"}, &Entry{Name: "both"}, &Entry{Name: "late"}
	ix.Insert(KindExpire, 5, early)
	ix.Insert(KindExpire, 10, both)
	ix.Insert(KindMax, 10, both)
	ix.Insert(KindMax, 20, early)
	ix.Insert(KindExpire, 30, late)

	due := ix.Due(10)
	if len(due) != 2 {
		t.Fatalf("Due(10) returned %d entries, want 2", len(due))
	}
	names := []string{due[0].Name, due[1].Name}
	slices.Sort(names)
	if !slices.Equal(names, []string{"both", "early"}) {
		t.Fatalf("Due(10) = %v", names)
	}

	if due := ix.Due(4); len(due) != 0 {
		t.Fatalf("nothing is due before the first bucket, got %d", len(due))
	}
	if due := ix.Due(1 << 40); len(due) != 3 {
		t.Fatalf("everything is due far in the future, got %d", len(due))
	}
}

func TestTimeoutIndex_StaysSorted(t *testing.T) {
	ix := NewTimeoutIndex()
	for _, at := range []int64{42, 7, 99, 7, 13, 1, 99, 64, 3} {
		ix.Insert(KindExpire, at, &Entry{})
	}
	ts := ix.Timestamps()
	for i := 1; i < len(ts); i++ {
		if ts[i-1] >= ts[i] {
			t.Fatalf("timestamps not strictly ascending: %v", ts)
		}
	}
}
