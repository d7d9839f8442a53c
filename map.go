package omega

import (
	"iter"
	"sync"
)

// Hashable keys of a HashMap.
type Hashable interface {
	Hash() uint64
	Equals(other Hashable) bool
}

// HashMap is a chained hash table keyed by Hashable values. It is used to
// intern the states of the constructions of this package, whose keys
// (Safra trees, product pairs) are not comparable Go values.
//
// The lock only makes a table safe to share; the constructions each use
// their own table from a single goroutine.
type HashMap[T any] struct {
	buckets     []*entry[T]
	size        int
	mask        uint64
	mutex       sync.RWMutex
	emptyValue  T
	loadFactory float64
}

type entry[T any] struct {
	key   Hashable
	value T
	next  *entry[T]
}

type optionsHashMap struct {
	capacity    int
	loadFactory float64
}

func newOptionsHashMap(opts ...OptionsHashMap) *optionsHashMap {
	options := &optionsHashMap{
		capacity:    1,
		loadFactory: 0.75,
	}

	for _, opt := range opts {
		opt(options)
	}

	realCap := 1
	for realCap < options.capacity {
		realCap <<= 1
	}
	options.capacity = realCap

	return options
}

type OptionsHashMap func(hashMap *optionsHashMap)

// WithCapacity sets the initial number of buckets, rounded up to a power of
// two.
func WithCapacity(capacity int) OptionsHashMap {
	return func(hashMap *optionsHashMap) {
		hashMap.capacity = capacity
	}
}

// WithLoadFactory sets the size to bucket ratio above which the table
// doubles.
func WithLoadFactory(loadFactory float64) OptionsHashMap {
	return func(hashMap *optionsHashMap) {
		if loadFactory > 0 {
			hashMap.loadFactory = loadFactory
		}
	}
}

func NewHashMap[T any](options ...OptionsHashMap) *HashMap[T] {
	opt := newOptionsHashMap(options...)

	return &HashMap[T]{
		buckets:     make([]*entry[T], opt.capacity),
		mask:        uint64(opt.capacity - 1),
		loadFactory: opt.loadFactory,
	}
}

func (m *HashMap[T]) find(key Hashable, hash uint64) *entry[T] {
	for e := m.buckets[hash&m.mask]; e != nil; e = e.next {
		if e.key.Equals(key) {
			return e
		}
	}
	return nil
}

func (m *HashMap[T]) add(key Hashable, hash uint64, value T) {
	index := hash & m.mask
	m.buckets[index] = &entry[T]{
		key:   key,
		value: value,
		next:  m.buckets[index],
	}
	m.size++

	if float64(m.size)/float64(len(m.buckets)) > m.loadFactory {
		m.resize()
	}
}

// Set stores value under key, replacing any previous value.
func (m *HashMap[T]) Set(key Hashable, value T) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	hash := key.Hash()
	if e := m.find(key, hash); e != nil {
		e.value = value
		return
	}
	m.add(key, hash, value)
}

// Insert stores value under key unless the key is present. It returns the
// value held by the table after the call and whether it was inserted.
func (m *HashMap[T]) Insert(key Hashable, value T) (T, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	hash := key.Hash()
	if e := m.find(key, hash); e != nil {
		return e.value, false
	}
	m.add(key, hash, value)
	return value, true
}

func (m *HashMap[T]) Get(key Hashable) (T, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if e := m.find(key, key.Hash()); e != nil {
		return e.value, true
	}
	return m.emptyValue, false
}

func (m *HashMap[T]) Delete(key Hashable) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	index := key.Hash() & m.mask

	var prev *entry[T]
	for e := m.buckets[index]; e != nil; prev, e = e, e.next {
		if e.key.Equals(key) {
			if prev == nil {
				m.buckets[index] = e.next
			} else {
				prev.next = e.next
			}
			m.size--
			return
		}
	}
}

func (m *HashMap[T]) resize() {
	newCap := len(m.buckets) << 1
	newBuckets := make([]*entry[T], newCap)
	newMask := uint64(newCap - 1)

	for _, head := range m.buckets {
		for e := head; e != nil; {
			next := e.next
			index := e.key.Hash() & newMask
			e.next = newBuckets[index]
			newBuckets[index] = e
			e = next
		}
	}

	m.buckets = newBuckets
	m.mask = newMask
}

func (m *HashMap[T]) Size() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.size
}

// Iterator yields every entry in bucket order.
func (m *HashMap[T]) Iterator() iter.Seq2[Hashable, T] {
	return func(yield func(Hashable, T) bool) {
		for _, bucket := range m.buckets {
			for e := bucket; e != nil; e = e.next {
				if !yield(e.key, e.value) {
					return
				}
			}
		}
	}
}
