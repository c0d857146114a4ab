package batch

import "github.com/apache/arrow/go/v12/arrow/memory"

// arrowDefaultPool is the allocator used when a batch is synthesized
// without an explicit pool (Empty, and tests). Production pipelines
// thread an allocator through engineconfig instead of relying on this
// default.
func arrowDefaultPool() memory.Allocator {
	return memory.NewGoAllocator()
}
