package analytics

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// visitorSet 独立访客集合，只用于统计基数
type visitorSet interface {
	Add(id string)
	Len() int
}

// unboundedVisitors 不淘汰的集合，进程生命周期内持续增长
type unboundedVisitors map[string]struct{}

func (v unboundedVisitors) Add(id string) { v[id] = struct{}{} }
func (v unboundedVisitors) Len() int      { return len(v) }

// boundedVisitors 容量受限的集合，超出时淘汰最久未出现的访客
type boundedVisitors struct {
	cache *lru.Cache[string, struct{}]
}

func (v *boundedVisitors) Add(id string) { v.cache.Add(id, struct{}{}) }
func (v *boundedVisitors) Len() int      { return v.cache.Len() }

func newVisitorSet(max int) visitorSet {
	if max > 0 {
		if c, err := lru.New[string, struct{}](max); err == nil {
			return &boundedVisitors{cache: c}
		}
	}
	return unboundedVisitors{}
}
