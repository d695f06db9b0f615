package session

import (
	"fmt"
	"time"
)

type Option func(*Store)

// WithGenerator replaces the session id source.
func WithGenerator(gen Generator) Option {
	return func(s *Store) {
		if gen != nil {
			s.gen = gen
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLimits sets the hard idle and absolute ceilings.
func WithLimits(maxIdle, maxLifetime time.Duration) Option {
	return func(s *Store) {
		if maxIdle > 0 {
			s.maxIdle = int64(maxIdle / time.Second)
		}
		if maxLifetime > 0 {
			s.maxLifetime = int64(maxLifetime / time.Second)
		}
	}
}

// Store keeps sessions keyed by client address then session id, together
// with the timeout index that expires them.
//
// Store is not safe for concurrent use. The daemon owns one Store from its
// single accept loop and every mutation happens there.
type Store struct {
	entries map[string]map[string]*Entry
	index   *TimeoutIndex
	count   int

	gen         Generator
	now         func() time.Time
	maxIdle     int64
	maxLifetime int64
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		entries:     make(map[string]map[string]*Entry),
		index:       NewTimeoutIndex(),
		gen:         RandomID(defaultIDBytes),
		now:         time.Now,
		maxIdle:     int64(defaultMaxIdle / time.Second),
		maxLifetime: int64(defaultMaxLifetime / time.Second),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxIdle > s.maxLifetime {
		s.maxIdle = s.maxLifetime
	}
	return s
}

type SaveParams struct {
	Addr     string
	Name     string
	Password *string
	// Expire and Max are requested durations in seconds; nil means "as long
	// as allowed".
	Expire   *int64
	Max      *int64
	Settings map[string]any
}

type SaveResult struct {
	ID       string
	Expire   int64
	Max      int64
	Interval int64
}

type LoadResult struct {
	Name     string
	Password *string
	Expire   int64
	Max      int64
	Interval int64
	Settings map[string]any
}

// Save creates an entry for an already validated request. A generated id
// that is already taken for the address yields ErrConflict; the caller
// retries.
func (s *Store) Save(p SaveParams) (SaveResult, error) {
	id, err := s.gen()
	if err != nil {
		return SaveResult{}, err
	}
	if s.lookup(p.Addr, id) != nil {
		return SaveResult{}, ErrConflict
	}

	now := s.now().Unix()
	interval, lifetime := s.clamp(p.Expire, p.Max)

	e := &Entry{
		Name:     p.Name,
		Settings: p.Settings,
		Interval: interval,
		addr:     p.Addr,
		id:       id,
		expire:   now + interval,
		max:      now + lifetime,
	}
	if p.Password != nil {
		e.password = []byte(*p.Password)
		e.hasPass = true
	}

	byID, ok := s.entries[p.Addr]
	if !ok {
		byID = make(map[string]*Entry)
		s.entries[p.Addr] = byID
	}
	byID[id] = e
	s.index.Insert(KindExpire, e.expire, e)
	s.index.Insert(KindMax, e.max, e)
	s.count++

	return SaveResult{ID: id, Expire: e.expire, Max: e.max, Interval: e.Interval}, nil
}

// Load sweeps everything due, then returns the entry and slides its idle
// expiration forward, never past its absolute expiration.
func (s *Store) Load(addr, id string) (LoadResult, error) {
	now := s.now().Unix()
	s.sweep(now)

	e := s.lookup(addr, id)
	if e == nil {
		return LoadResult{}, ErrNotFound
	}

	if e.expire < e.max {
		// expire only ever moves forward, even if the clock steps back.
		next := min(now+e.Interval, e.max)
		if next > e.expire {
			s.index.Move(KindExpire, e.expire, next, e)
			e.expire = next
		}
	}

	res := LoadResult{
		Name:     e.Name,
		Expire:   e.expire,
		Max:      e.max,
		Interval: e.Interval,
		Settings: e.Settings,
	}
	if pw, ok := e.Password(); ok {
		res.Password = &pw
	}
	return res, nil
}

// Close removes the entry. An absent entry is ErrNotFound even though the
// underlying removal is idempotent.
func (s *Store) Close(addr, id string) error {
	e := s.lookup(addr, id)
	if e == nil {
		return ErrNotFound
	}
	s.remove(e)
	return nil
}

// Flush sweeps everything due at the store clock's current time and
// returns how many entries were removed.
func (s *Store) Flush() int {
	return s.sweep(s.now().Unix())
}

// Len is the number of live entries.
func (s *Store) Len() int {
	return s.count
}

func (s *Store) String() string {
	return fmt.Sprintf("sessions=%d buckets=%d", s.count, s.index.Len())
}

func (s *Store) sweep(now int64) int {
	removed := 0
	for _, e := range s.index.Due(now) {
		if s.remove(e) {
			removed++
		}
	}
	return removed
}

func (s *Store) lookup(addr, id string) *Entry {
	byID, ok := s.entries[addr]
	if !ok {
		return nil
	}
	return byID[id]
}

// remove drops e from the table and both of its buckets. Removing an entry
// that is already gone is a no-op.
func (s *Store) remove(e *Entry) bool {
	byID, ok := s.entries[e.addr]
	if !ok || byID[e.id] != e {
		return false
	}
	delete(byID, e.id)
	if len(byID) == 0 {
		delete(s.entries, e.addr)
	}
	s.index.Remove(KindExpire, e.expire, e)
	s.index.Remove(KindMax, e.max, e)
	s.count--
	e.wipe()
	return true
}

// clamp turns requested durations into effective ones: absent or oversized
// values become the ceilings, and idle never outlasts the absolute limit.
func (s *Store) clamp(reqExpire, reqMax *int64) (interval, lifetime int64) {
	lifetime = s.maxLifetime
	if reqMax != nil && *reqMax > 0 && *reqMax < lifetime {
		lifetime = *reqMax
	}
	interval = s.maxIdle
	if reqExpire != nil && *reqExpire > 0 && *reqExpire < interval {
		interval = *reqExpire
	}
	if interval > lifetime {
		interval = lifetime
	}
	return interval, lifetime
}
