package registry

import (
	"testing"

	"github.com/bareos-community/dirjobq/id"
)

func TestTryIncRespectsMax(t *testing.T) {
	r := New(nil)
	client := id.NewClientID()
	r.SetMax(KindClient, client, 2)

	if !r.TryInc(KindClient, client) {
		t.Fatal("first TryInc should succeed")
	}
	if !r.TryInc(KindClient, client) {
		t.Fatal("second TryInc should succeed")
	}
	if r.TryInc(KindClient, client) {
		t.Fatal("third TryInc should fail at max")
	}

	n, max := r.Count(KindClient, client)
	if n != 2 || max != 2 {
		t.Fatalf("got n=%d max=%d, want n=2 max=2", n, max)
	}
}

func TestTryIncUndeclaredResourceFails(t *testing.T) {
	r := New(nil)
	if r.TryInc(KindJobDef, id.NewJobDefID()) {
		t.Fatal("TryInc on an undeclared resource (max=0) should fail")
	}
}

func TestDecFreesCapacity(t *testing.T) {
	r := New(nil)
	storage := id.NewStorageID()
	r.SetMax(KindReadStorage, storage, 1)

	if !r.TryInc(KindReadStorage, storage) {
		t.Fatal("TryInc should succeed")
	}
	if r.TryInc(KindReadStorage, storage) {
		t.Fatal("second TryInc should fail at max=1")
	}

	r.Dec(KindReadStorage, storage)

	if !r.TryInc(KindReadStorage, storage) {
		t.Fatal("TryInc should succeed again after Dec frees capacity")
	}
}

func TestNumReadTracksReadStorage(t *testing.T) {
	r := New(nil)
	storage := id.NewStorageID()
	r.SetMax(KindReadStorage, storage, 3)

	r.TryInc(KindReadStorage, storage)
	r.TryInc(KindReadStorage, storage)

	if got := r.NumRead(storage); got != 2 {
		t.Fatalf("NumRead = %d, want 2", got)
	}

	r.Dec(KindReadStorage, storage)

	if got := r.NumRead(storage); got != 1 {
		t.Fatalf("NumRead after Dec = %d, want 1", got)
	}
}

func TestResourcesAreIndependent(t *testing.T) {
	r := New(nil)
	a := id.NewClientID()
	b := id.NewClientID()
	r.SetMax(KindClient, a, 1)
	r.SetMax(KindClient, b, 1)

	if !r.TryInc(KindClient, a) {
		t.Fatal("TryInc on a should succeed")
	}
	if !r.TryInc(KindClient, b) {
		t.Fatal("TryInc on b should succeed independently of a")
	}
}
