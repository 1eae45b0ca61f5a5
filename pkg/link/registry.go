package link

import (
	"hash/fnv"
	"sort"
	"sync"
)

// shardCount trades lock contention against memory; paths hash across
// shards so installs that share no destination path never serialize.
const shardCount = 32

// pathClaim tracks who owns one destination path within a transaction.
type pathClaim struct {
	owner      string
	superseded []string
}

// Conflict is one clobber: a path claimed by more than one package. The
// winner holds the on-disk file; the superseded packages keep logical
// ownership in their own manifests.
type Conflict struct {
	Path       string
	Winner     string
	Superseded []string
}

type registryShard struct {
	mu     sync.Mutex
	claims map[string]*pathClaim
}

// ClobberRegistry maps destination paths to owning packages for the
// lifetime of one transaction. It is safe for concurrent use; the map is
// lock-striped by path so only claims on the same path serialize.
type ClobberRegistry struct {
	shards [shardCount]registryShard
}

// NewClobberRegistry creates an empty registry.
func NewClobberRegistry() *ClobberRegistry {
	r := &ClobberRegistry{}
	for i := range r.shards {
		r.shards[i].claims = make(map[string]*pathClaim)
	}
	return r
}

func (r *ClobberRegistry) shard(path string) *registryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(path))
	return &r.shards[h.Sum32()%shardCount]
}

// Claim records pkg as the owner of path. When the path was already owned
// by a different package, the previous owner is superseded (last package in
// transaction order wins the on-disk file) and returned.
func (r *ClobberRegistry) Claim(path, pkg string) (previous string, clobbered bool) {
	s := r.shard(path)
	s.mu.Lock()
	defer s.mu.Unlock()

	claim, ok := s.claims[path]
	if !ok {
		s.claims[path] = &pathClaim{owner: pkg}
		return "", false
	}
	if claim.owner == pkg {
		return "", false
	}
	previous = claim.owner
	claim.superseded = append(claim.superseded, claim.owner)
	claim.owner = pkg
	return previous, true
}

// Owner returns the package currently winning path, if any.
func (r *ClobberRegistry) Owner(path string) (string, bool) {
	s := r.shard(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	if claim, ok := s.claims[path]; ok {
		return claim.owner, true
	}
	return "", false
}

// Conflicts returns every clobbered path with its full conflict set,
// ordered by path for deterministic reporting.
func (r *ClobberRegistry) Conflicts() []Conflict {
	var out []Conflict
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		for path, claim := range s.claims {
			if len(claim.superseded) == 0 {
				continue
			}
			superseded := make([]string, len(claim.superseded))
			copy(superseded, claim.superseded)
			out = append(out, Conflict{
				Path:       path,
				Winner:     claim.owner,
				Superseded: superseded,
			})
		}
		s.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
