package consistency

import (
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
)

const shardCount = 32

type shard struct {
	mu       sync.Mutex
	values   map[string]map[string]string // rule_name -> original -> anonymized
	counters map[string]uint64            // rule_name -> next token ordinal
}

// Map is the process-wide consistency map. The zero value is not usable;
// construct with New or Load.
type Map struct {
	shards [shardCount]*shard
}

// New builds an empty, in-memory consistency map.
func New() *Map {
	m := &Map{}
	for i := range m.shards {
		m.shards[i] = &shard{
			values:   make(map[string]map[string]string),
			counters: make(map[string]uint64),
		}
	}
	return m
}

func (m *Map) shardFor(ruleName string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ruleName))
	return m.shards[h.Sum32()%shardCount]
}

// Get returns the previously stored anonymized value for
// (ruleName, original), if present. original must never be empty; the
// map invariant is that it never holds a null key.
func (m *Map) Get(ruleName, original string) (string, bool) {
	if original == "" {
		return "", false
	}
	s := m.shardFor(ruleName)
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[ruleName][original]
	return v, ok
}

// Put records the anonymized value for (ruleName, original). Storing an
// empty original is a programmer error and is rejected.
func (m *Map) Put(ruleName, original, anonymized string) error {
	if original == "" {
		return fmt.Errorf("consistency: refusing to store a null/empty key for rule %q", ruleName)
	}
	s := m.shardFor(ruleName)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values[ruleName] == nil {
		s.values[ruleName] = make(map[string]string)
	}
	s.values[ruleName][original] = anonymized
	return nil
}

// NextToken returns the next token in the strictly increasing,
// per-rule-name sequence TOKEN_########, reserving it so no other caller
// observes the same ordinal.
func (m *Map) NextToken(ruleName string) string {
	s := m.shardFor(ruleName)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[ruleName]++
	return fmt.Sprintf("TOKEN_%08d", s.counters[ruleName])
}

// ResolveOrAssign returns the existing mapping for (ruleName, original)
// if present, otherwise calls assign to produce one, stores it, and
// returns it. assign is called with the shard's lock released so it may
// itself call back into the map (e.g. NextToken) without deadlocking.
func (m *Map) ResolveOrAssign(ruleName, original string, assign func() (string, error)) (string, error) {
	if original == "" {
		return "", fmt.Errorf("consistency: refusing to resolve a null/empty key for rule %q", ruleName)
	}
	if v, ok := m.Get(ruleName, original); ok {
		return v, nil
	}
	v, err := assign()
	if err != nil {
		return "", err
	}
	if err := m.Put(ruleName, original, v); err != nil {
		return "", err
	}
	return v, nil
}

// RuleNames returns every rule name currently holding mappings, sorted.
func (m *Map) RuleNames() []string {
	seen := make(map[string]struct{})
	for _, s := range m.shards {
		s.mu.Lock()
		for name := range s.values {
			seen[name] = struct{}{}
		}
		s.mu.Unlock()
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
