package registry

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingObserver struct {
	mu      sync.Mutex
	changes []ChangeType
	users   []User
}

func (o *recordingObserver) UserChanged(change ChangeType, u User) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.changes = append(o.changes, change)
	o.users = append(o.users, u)
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	r := New()
	for want := 1; want <= 5; want++ {
		u := r.Create("someone1", 30)
		if u.ID != want {
			t.Fatalf("create #%d: id = %d, want %d", want, u.ID, want)
		}
	}
	if got := r.Len(); got != 5 {
		t.Fatalf("Len() = %d, want 5", got)
	}
}

func TestGetAfterCreate(t *testing.T) {
	r := New()
	created := r.Create("alice123", 25)

	got, err := r.Get(created.ID)
	if err != nil {
		t.Fatalf("Get(%d): %v", created.ID, err)
	}
	if got != created {
		t.Fatalf("Get(%d) = %+v, want %+v", created.ID, got, created)
	}
}

func TestGetMissing(t *testing.T) {
	r := New()
	if _, err := r.Get(1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty registry: err = %v, want ErrNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	r := New()
	u := r.Create("alice123", 25)

	updated, err := r.Update(u.ID, "alice999", 26)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	want := User{ID: u.ID, Username: "alice999", Age: 26}
	if updated != want {
		t.Fatalf("Update = %+v, want %+v", updated, want)
	}
	if got, _ := r.Get(u.ID); got != want {
		t.Fatalf("Get after update = %+v, want %+v", got, want)
	}
}

func TestUpdateMissingDoesNotMutate(t *testing.T) {
	r := New()
	u := r.Create("alice123", 25)

	if _, err := r.Update(u.ID+1, "mallory1", 40); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update missing: err = %v, want ErrNotFound", err)
	}
	list := r.List()
	if len(list) != 1 || list[0] != u {
		t.Fatalf("List after failed update = %+v, want [%+v]", list, u)
	}
}

func TestDelete(t *testing.T) {
	r := New()
	a := r.Create("alice123", 25)
	b := r.Create("bob12345", 30)
	c := r.Create("carol123", 35)

	if err := r.Delete(b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := r.Get(b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get deleted: err = %v, want ErrNotFound", err)
	}
	list := r.List()
	if len(list) != 2 || list[0] != a || list[1] != c {
		t.Fatalf("List after delete = %+v, want [%+v %+v]", list, a, c)
	}
}

func TestDeleteMissingLeavesSequence(t *testing.T) {
	r := New()
	a := r.Create("alice123", 25)

	if err := r.Delete(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete missing: err = %v, want ErrNotFound", err)
	}
	if list := r.List(); len(list) != 1 || list[0] != a {
		t.Fatalf("List = %+v, want [%+v]", list, a)
	}
}

func TestListKeepsInsertionOrder(t *testing.T) {
	r := New()
	names := []string{"zed12345", "alice123", "mike1234"}
	for _, n := range names {
		r.Create(n, 20)
	}
	for i, u := range r.List() {
		if u.Username != names[i] {
			t.Fatalf("List()[%d].Username = %q, want %q", i, u.Username, names[i])
		}
	}
}

func TestListReturnsCopies(t *testing.T) {
	r := New()
	r.Create("alice123", 25)

	list := r.List()
	list[0].Username = "hacked99"

	if got, _ := r.Get(1); got.Username != "alice123" {
		t.Fatalf("registry mutated through List result: %+v", got)
	}
}

func TestIDReusedAfterDeletingMax(t *testing.T) {
	r := New()
	r.Create("alice123", 25)
	b := r.Create("bob12345", 30)
	if err := r.Delete(b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if c := r.Create("carol123", 40); c.ID != b.ID {
		t.Fatalf("id after deleting max = %d, want %d", c.ID, b.ID)
	}
}

func TestScenario(t *testing.T) {
	r := New()

	alice := r.Create("alice123", 25)
	if want := (User{ID: 1, Username: "alice123", Age: 25}); alice != want {
		t.Fatalf("create alice = %+v, want %+v", alice, want)
	}
	bob := r.Create("bob12345", 30)
	if bob.ID != 2 {
		t.Fatalf("create bob id = %d, want 2", bob.ID)
	}
	if err := r.Delete(1); err != nil {
		t.Fatalf("delete 1: %v", err)
	}
	if list := r.List(); len(list) != 1 || list[0] != bob {
		t.Fatalf("list = %+v, want [%+v]", list, bob)
	}
	carol, err := r.Update(2, "carol123", 40)
	if err != nil {
		t.Fatalf("update 2: %v", err)
	}
	if want := (User{ID: 2, Username: "carol123", Age: 40}); carol != want {
		t.Fatalf("update = %+v, want %+v", carol, want)
	}
	if _, err := r.Get(1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get 1: err = %v, want ErrNotFound", err)
	}
}

func TestConcurrentCreatesGetDistinctIDs(t *testing.T) {
	r := New()
	const n = 100

	var wg sync.WaitGroup
	ids := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- r.Create("parallel", 50).ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool, n)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d distinct ids, want %d", len(seen), n)
	}
}

func TestObserverNotifications(t *testing.T) {
	obs := &recordingObserver{}
	r := New(WithObserver(obs))

	u := r.Create("alice123", 25)
	if _, err := r.Update(u.ID, "alice456", 26); err != nil {
		t.Fatalf("Update: %v", err)
	}
	_, _ = r.Update(99, "nobody12", 30)
	if err := r.Delete(u.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_ = r.Delete(u.ID)

	want := []ChangeType{ChangeCreated, ChangeUpdated, ChangeDeleted}
	if len(obs.changes) != len(want) {
		t.Fatalf("changes = %v, want %v", obs.changes, want)
	}
	for i := range want {
		if obs.changes[i] != want[i] {
			t.Fatalf("changes[%d] = %s, want %s", i, obs.changes[i], want[i])
		}
	}
	if obs.users[2].Username != "alice456" {
		t.Fatalf("deleted user payload = %+v", obs.users[2])
	}
}

// pausingObserver blocks inside the first update notification until
// released, recording every user it sees.
type pausingObserver struct {
	mu      sync.Mutex
	last    User
	updates int
	entered chan struct{}
	release chan struct{}
}

func (o *pausingObserver) UserChanged(change ChangeType, u User) {
	if change == ChangeUpdated {
		o.mu.Lock()
		o.updates++
		first := o.updates == 1
		o.mu.Unlock()
		if first {
			close(o.entered)
			<-o.release
		}
	}
	o.mu.Lock()
	o.last = u
	o.mu.Unlock()
}

func TestSlowObserverKeepsMutationOrder(t *testing.T) {
	obs := &pausingObserver{entered: make(chan struct{}), release: make(chan struct{})}
	r := New(WithObserver(obs))
	u := r.Create("alice123", 25)

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, _ = r.Update(u.ID, "first123", 30)
	}()
	<-obs.entered

	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		_, _ = r.Update(u.ID, "second12", 40)
	}()

	select {
	case <-secondDone:
		t.Fatal("second update finished while the first was still being reported")
	case <-time.After(50 * time.Millisecond):
	}

	close(obs.release)
	<-firstDone
	<-secondDone

	final, err := r.Get(u.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	obs.mu.Lock()
	defer obs.mu.Unlock()
	if obs.last != final {
		t.Fatalf("last notification = %+v, registry holds %+v", obs.last, final)
	}
}

func TestConcurrentUpdatesNotifyInApplyOrder(t *testing.T) {
	obs := &recordingObserver{}
	r := New(WithObserver(obs))
	u := r.Create("alice123", 25)

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(age int) {
			defer wg.Done()
			_, _ = r.Update(u.ID, "racer123", age)
		}(18 + i%100)
	}
	wg.Wait()

	final, err := r.Get(u.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.users) != n+1 {
		t.Fatalf("notifications = %d, want %d", len(obs.users), n+1)
	}
	if last := obs.users[len(obs.users)-1]; last != final {
		t.Fatalf("last notification = %+v, registry holds %+v", last, final)
	}
}
