// internal/controls/cache.go
package controls

import (
	"regexp"
	"sort"
	"sync"
)

// Control is a copy of one cached control. Callers never receive a
// pointer into the cache: lookups are by name only.
type Control struct {
	Name     string
	Value    any
	Position *float64
	String   string
	Subs     int
}

// Update is a partial control update. Nil members keep prior values.
type Update struct {
	Name     string
	Value    any
	HasValue bool
	Position *float64
	String   *string
}

type entry struct {
	value    any
	position *float64
	str      string
	subs     map[string]struct{}
}

// Cache maps control name to last-known value and subscriber set.
// Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

// Subscribe adds subscriber to name, creating the control when absent.
// Reports whether the control was newly created.
func (c *Cache) Subscribe(name, subscriber string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[name]
	if !ok {
		e = &entry{subs: make(map[string]struct{})}
		c.entries[name] = e
	}
	e.subs[subscriber] = struct{}{}
	return !ok
}

// Unsubscribe removes subscriber from name. The control is deleted in the
// same call when its last subscriber leaves. Reports deletion.
func (c *Cache) Unsubscribe(name, subscriber string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[name]
	if !ok {
		return false
	}
	delete(e.subs, subscriber)
	if len(e.subs) == 0 {
		delete(c.entries, name)
		return true
	}
	return false
}

// DropSubscriber removes subscriber from every control, deleting any
// control left without subscribers. Returns the deleted names.
func (c *Cache) DropSubscriber(subscriber string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var deleted []string
	for name, e := range c.entries {
		if _, ok := e.subs[subscriber]; !ok {
			continue
		}
		delete(e.subs, subscriber)
		if len(e.subs) == 0 {
			delete(c.entries, name)
			deleted = append(deleted, name)
		}
	}
	sort.Strings(deleted)
	return deleted
}

// Apply merges u into the cached control, creating it if absent.
// An update for a name nobody subscribed to is retained.
func (c *Cache) Apply(u Update) Control {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[u.Name]
	if !ok {
		e = &entry{subs: make(map[string]struct{})}
		c.entries[u.Name] = e
	}
	if u.HasValue {
		e.value = u.Value
	}
	if u.Position != nil {
		p := *u.Position
		e.position = &p
	}
	if u.String != nil {
		e.str = *u.String
	}
	return e.snapshot(u.Name)
}

// Get returns a copy of the named control.
func (c *Cache) Get(name string) (Control, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[name]
	if !ok {
		return Control{}, false
	}
	return e.snapshot(name), true
}

// Names returns every cached control name, sorted. This is the set the
// poll loop reads.
func (c *Cache) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.entries))
	for n := range c.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of cached controls.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset forgets every value and drops entries nobody subscribed to.
// Subscriptions survive: they belong to the caller, not the connection.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, e := range c.entries {
		if len(e.subs) == 0 {
			delete(c.entries, name)
			continue
		}
		e.value = nil
		e.position = nil
		e.str = ""
	}
}

func (e *entry) snapshot(name string) Control {
	ctl := Control{Name: name, Value: e.value, String: e.str, Subs: len(e.subs)}
	if e.position != nil {
		p := *e.position
		ctl.Position = &p
	}
	return ctl
}

var illegalVariableChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// VariableID turns a control name into a legal variable id.
func VariableID(name string) string {
	return illegalVariableChars.ReplaceAllString(name, "_")
}
