package catalogcache

import (
	"testing"
	"time"

	"github.com/bareos-community/dirjobq/id"
	"github.com/bareos-community/dirjobq/jcr"
)

func TestDefinitionRoundTrip(t *testing.T) {
	c := New()
	def := jcr.Definition{
		ID:                 id.NewJobDefID(),
		MaxConcurrentJobs:   4,
		RescheduleOnError:   true,
		RescheduleTimes:     3,
		RescheduleInterval:  5 * time.Minute,
	}
	c.PutDefinition(def)

	got, ok := c.Definition(def.ID)
	if !ok {
		t.Fatal("expected definition to be found")
	}
	if got.MaxConcurrentJobs != 4 {
		t.Fatalf("MaxConcurrentJobs = %d, want 4", got.MaxConcurrentJobs)
	}
}

func TestClientAndStorageMax(t *testing.T) {
	c := New()
	client := id.NewClientID()
	storage := id.NewStorageID()

	if got := c.ClientMax(client); got != 0 {
		t.Fatalf("ClientMax on unset client = %d, want 0", got)
	}

	c.SetClientMax(client, 2)
	c.SetStorageMax(storage, 5)

	if got := c.ClientMax(client); got != 2 {
		t.Fatalf("ClientMax = %d, want 2", got)
	}
	if got := c.StorageMax(storage); got != 5 {
		t.Fatalf("StorageMax = %d, want 5", got)
	}
}

func TestDenyDuplicateOracle(t *testing.T) {
	running := []string{"nightly-backup"}
	oracle := NewDenyDuplicateOracle(func() []string { return running })

	j := jcr.New(id.NewJobID(), "nightly-backup", jcr.TypeBackup)
	if oracle.AllowDuplicateJob(j) {
		t.Fatal("expected duplicate job name to be denied")
	}

	j2 := jcr.New(id.NewJobID(), "weekly-backup", jcr.TypeBackup)
	if !oracle.AllowDuplicateJob(j2) {
		t.Fatal("expected distinct job name to be allowed")
	}
}
