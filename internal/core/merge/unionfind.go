package merge

import "sync"

// DisjointSet is a union-find over record IDs with path compression and
// union-by-size. A single mutex guards mutation; resolution is I/O-bound so
// contention here is negligible.
type DisjointSet struct {
	mu     sync.Mutex
	parent map[string]string
	size   map[string]int
}

func NewDisjointSet() *DisjointSet {
	return &DisjointSet{
		parent: make(map[string]string),
		size:   make(map[string]int),
	}
}

// Add registers id as its own singleton class. No-op if already present.
func (ds *DisjointSet) Add(id string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.add(id)
}

func (ds *DisjointSet) add(id string) {
	if _, ok := ds.parent[id]; !ok {
		ds.parent[id] = id
		ds.size[id] = 1
	}
}

// Union merges the classes of a and b, registering either if unseen.
func (ds *DisjointSet) Union(a, b string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.add(a)
	ds.add(b)

	ra, rb := ds.find(a), ds.find(b)
	if ra == rb {
		return
	}
	if ds.size[ra] < ds.size[rb] {
		ra, rb = rb, ra
	}
	ds.parent[rb] = ra
	ds.size[ra] += ds.size[rb]
}

// Find returns the class representative for id, or "" if id was never added.
func (ds *DisjointSet) Find(id string) string {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if _, ok := ds.parent[id]; !ok {
		return ""
	}
	return ds.find(id)
}

func (ds *DisjointSet) find(id string) string {
	root := id
	for ds.parent[root] != root {
		root = ds.parent[root]
	}
	// Path compression.
	for ds.parent[id] != root {
		ds.parent[id], id = root, ds.parent[id]
	}
	return root
}

// Classes returns every equivalence class, keyed by representative.
func (ds *DisjointSet) Classes() map[string][]string {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	classes := make(map[string][]string)
	for id := range ds.parent {
		root := ds.find(id)
		classes[root] = append(classes[root], id)
	}
	return classes
}
