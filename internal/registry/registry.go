package registry

import (
	"errors"
	"sync"
)

// ErrNotFound is returned when no user matches the requested id.
var ErrNotFound = errors.New("user not found")

// User is a single user record owned by the registry.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Age      int    `json:"age"`
}

// ChangeType names the kind of mutation reported to an Observer.
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// Observer is notified after every successful mutation. It is called while
// the registry write lock is held, so notifications arrive in the order the
// mutations were applied. Implementations must not block and must not call
// back into the registry.
type Observer interface {
	UserChanged(change ChangeType, u User)
}

// Registry is a thread-safe, in-memory, insertion-ordered user store. All
// public methods are safe for concurrent use and hand out copies, never
// pointers into the store.
type Registry struct {
	mu    sync.RWMutex
	byID  map[int]*User
	order []int

	observer Observer
}

// Option configures a Registry.
type Option func(*Registry)

// WithObserver registers o to receive change notifications.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		r.observer = o
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		byID: make(map[int]*User),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns a copy of all users in insertion order.
func (r *Registry) List() []User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out
}

// Get returns the user with the given id, or ErrNotFound.
func (r *Registry) Get(id int) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return *u, nil
}

// Len returns the number of stored users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Create appends a new user and returns it. The id is one more than the
// highest id currently stored, so deleting the newest user lets its id be
// handed out again. Username and age are expected to be validated already.
func (r *Registry) Create(username string, age int) User {
	r.mu.Lock()
	defer r.mu.Unlock()

	maxID := 0
	for id := range r.byID {
		if id > maxID {
			maxID = id
		}
	}
	u := &User{ID: maxID + 1, Username: username, Age: age}
	r.byID[u.ID] = u
	r.order = append(r.order, u.ID)
	created := *u

	r.notify(ChangeCreated, created)
	return created
}

// Update replaces the username and age of an existing user. The id never
// changes. Nothing is modified when the user does not exist.
func (r *Registry) Update(id int, username string, age int) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	u.Username = username
	u.Age = age
	updated := *u

	r.notify(ChangeUpdated, updated)
	return updated, nil
}

// Delete removes the user with the given id, or returns ErrNotFound and
// leaves the registry untouched.
func (r *Registry) Delete(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	removed := *u
	delete(r.byID, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.notify(ChangeDeleted, removed)
	return nil
}

// notify must be called with r.mu held for writing.
func (r *Registry) notify(change ChangeType, u User) {
	if r.observer != nil {
		r.observer.UserChanged(change, u)
	}
}
