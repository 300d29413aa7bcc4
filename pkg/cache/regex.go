package cache

import (
	"container/list"
	"regexp"
	"sync"
)

// DefaultRegexCapacity is used when NewRegexps is given a non-positive
// capacity.
const DefaultRegexCapacity = 64

type regexEntry struct {
	key string
	re  *regexp.Regexp
}

// Regexps is a bounded LRU of compiled regular expressions. Patterns may
// come from template data, so the number of retained entries is capped and
// each evaluator owns its own instance.
//
// Safe for concurrent use by multiple goroutines. A nil *Regexps compiles
// on every call.
type Regexps struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

// NewRegexps creates a regex cache holding at most capacity patterns.
func NewRegexps(capacity int) *Regexps {
	if capacity <= 0 {
		capacity = DefaultRegexCapacity
	}
	return &Regexps{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Compile returns the compiled form of pattern.
func (r *Regexps) Compile(pattern string) (*regexp.Regexp, error) {
	return r.GetOrCompile(pattern, func() (*regexp.Regexp, error) {
		return regexp.Compile(pattern)
	})
}

// GetOrCompile returns the regexp stored under key, or calls compile and
// stores its result. Errors are not cached. compile runs without the lock
// held, so two goroutines missing on the same key may both compile it.
func (r *Regexps) GetOrCompile(key string, compile func() (*regexp.Regexp, error)) (*regexp.Regexp, error) {
	if r == nil {
		return compile()
	}

	r.mu.Lock()
	if el, ok := r.items[key]; ok {
		r.ll.MoveToFront(el)
		re := el.Value.(*regexEntry).re
		r.mu.Unlock()
		return re, nil
	}
	r.mu.Unlock()

	re, err := compile()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if el, ok := r.items[key]; ok {
		r.ll.MoveToFront(el)
		return el.Value.(*regexEntry).re, nil
	}
	if r.ll.Len() >= r.capacity {
		if back := r.ll.Back(); back != nil {
			r.ll.Remove(back)
			delete(r.items, back.Value.(*regexEntry).key)
		}
	}
	r.items[key] = r.ll.PushFront(&regexEntry{key: key, re: re})
	return re, nil
}

// Len returns the number of cached patterns.
func (r *Regexps) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ll.Len()
}
