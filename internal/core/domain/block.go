package domain

// Priority bands for blocks. Lower values are expanded sooner.
const (
	PriorityUser    = 0
	PriorityData    = 1
	PriorityDefault = 2
	PrioritySystem  = 3
)

// Block is a directory unit of traversal work.
type Block struct {
	// Path is the directory path as discovered (not canonicalised).
	Path string

	// Depth is the distance from the search root. The root itself is 0.
	Depth int

	// Priority orders blocks in the queue; lower is sooner.
	Priority int
}

// Child returns the block for a subdirectory of b.
func (b Block) Child(path string, priority int) Block {
	return Block{Path: path, Depth: b.Depth + 1, Priority: priority}
}
