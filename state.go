package lockman

import "sync"

// KeyFunc extracts the secondary index key from a LockInfo. Each strategy
// instantiates IndexedLockState with the extractor that matches its own
// info type (Go has no
// higher-kinded polymorphism, so the store is generic over the key type K
// and fixed, per strategy instance, to one extractor function).
type KeyFunc[K comparable] func(LockInfo) K

// IndexedLockState is the per-boundary, ordered, key-indexed storage of
// lock-info described here. It is the sole place strategies keep their
// committed acquisitions; every operation below is a single critical
// section over one internal mutex, and no internal collection ever escapes
// a snapshot copy.
type IndexedLockState[K comparable] struct {
	mu    sync.Mutex
	keyFn KeyFunc[K]
	// order preserves insertion order per boundary.
	order map[BoundaryID][]LockInfo
	// byKey mirrors order, bucketed by K, kept exactly consistent with it.
	byKey map[BoundaryID]map[K][]LockInfo
}

// NewIndexedLockState creates a store parameterized by keyFn.
func NewIndexedLockState[K comparable](keyFn KeyFunc[K]) *IndexedLockState[K] {
	return &IndexedLockState[K]{
		keyFn: keyFn,
		order: make(map[BoundaryID][]LockInfo),
		byKey: make(map[BoundaryID]map[K][]LockInfo),
	}
}

// Add appends info to boundary's ordered sequence and to the bucket keyFn(info).
func (s *IndexedLockState[K]) Add(boundary BoundaryID, info LockInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order[boundary] = append(s.order[boundary], info)

	buckets, ok := s.byKey[boundary]
	if !ok {
		buckets = make(map[K][]LockInfo)
		s.byKey[boundary] = buckets
	}
	k := s.keyFn(info)
	buckets[k] = append(buckets[k], info)
}

// Remove removes the entry whose UniqueID matches info.UniqueID(); no-op if
// absent. Empty buckets and empty boundaries are garbage-collected.
func (s *IndexedLockState[K]) Remove(boundary BoundaryID, info LockInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(boundary, info.UniqueID())
}

func (s *IndexedLockState[K]) removeLocked(boundary BoundaryID, id UniqueID) {
	seq, ok := s.order[boundary]
	if !ok {
		return
	}
	idx := -1
	for i, e := range seq {
		if e.UniqueID() == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	removed := seq[idx]
	seq = append(seq[:idx:idx], seq[idx+1:]...)
	if len(seq) == 0 {
		delete(s.order, boundary)
	} else {
		s.order[boundary] = seq
	}

	buckets := s.byKey[boundary]
	if buckets == nil {
		return
	}
	k := s.keyFn(removed)
	bucket := buckets[k]
	for i, e := range bucket {
		if e.UniqueID() == id {
			bucket = append(bucket[:i:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(buckets, k)
	} else {
		buckets[k] = bucket
	}
	if len(buckets) == 0 {
		delete(s.byKey, boundary)
	}
}

// CurrentLocks returns an ordered snapshot of boundary's entries.
func (s *IndexedLockState[K]) CurrentLocks(boundary BoundaryID) []LockInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSlice(s.order[boundary])
}

// CurrentLocksMatching returns an ordered snapshot of boundary's entries
// whose extracted key equals key.
func (s *IndexedLockState[K]) CurrentLocksMatching(boundary BoundaryID, key K) []LockInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	buckets := s.byKey[boundary]
	if buckets == nil {
		return nil
	}
	return cloneSlice(buckets[key])
}

// HasActiveLocks reports whether boundary has any entry keyed by key.
func (s *IndexedLockState[K]) HasActiveLocks(boundary BoundaryID, key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	buckets := s.byKey[boundary]
	if buckets == nil {
		return false
	}
	return len(buckets[key]) > 0
}

// ActiveLockCount returns the size of boundary's key bucket.
func (s *IndexedLockState[K]) ActiveLockCount(boundary BoundaryID, key K) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	buckets := s.byKey[boundary]
	if buckets == nil {
		return 0
	}
	return len(buckets[key])
}

// ActiveKeys returns the set of keys currently present for boundary.
func (s *IndexedLockState[K]) ActiveKeys(boundary BoundaryID) map[K]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	buckets := s.byKey[boundary]
	out := make(map[K]struct{}, len(buckets))
	for k := range buckets {
		out[k] = struct{}{}
	}
	return out
}

// ActiveBoundaryIDs returns every boundary with >=1 entry.
func (s *IndexedLockState[K]) ActiveBoundaryIDs() []BoundaryID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]BoundaryID, 0, len(s.order))
	for b := range s.order {
		out = append(out, b)
	}
	return out
}

// TotalActiveLockCount sums entries across every boundary.
func (s *IndexedLockState[K]) TotalActiveLockCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, seq := range s.order {
		total += len(seq)
	}
	return total
}

// AllActiveLocks returns an ordered snapshot per boundary.
func (s *IndexedLockState[K]) AllActiveLocks() map[BoundaryID][]LockInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[BoundaryID][]LockInfo, len(s.order))
	for b, seq := range s.order {
		out[b] = cloneSlice(seq)
	}
	return out
}

// RemoveAllMatching drops every entry in boundary's key bucket.
func (s *IndexedLockState[K]) RemoveAllMatching(boundary BoundaryID, key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buckets := s.byKey[boundary]
	if buckets == nil {
		return
	}
	for _, e := range cloneSlice(buckets[key]) {
		s.removeLocked(boundary, e.UniqueID())
	}
}

// RemoveAllBoundary drops boundary entirely.
func (s *IndexedLockState[K]) RemoveAllBoundary(boundary BoundaryID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.order, boundary)
	delete(s.byKey, boundary)
}

// RemoveAll drops every boundary.
func (s *IndexedLockState[K]) RemoveAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = make(map[BoundaryID][]LockInfo)
	s.byKey = make(map[BoundaryID]map[K][]LockInfo)
}

func cloneSlice(in []LockInfo) []LockInfo {
	if len(in) == 0 {
		return nil
	}
	out := make([]LockInfo, len(in))
	copy(out, in)
	return out
}
