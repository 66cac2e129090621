package violation

// Group collects the violations anchored to one node.
type Group struct {
	Node       NodeRef     `json:"node"`
	Page       int         `json:"page"`
	BBox       [4]float64  `json:"bbox"`
	Violations []Violation `json:"violations"`
}

// GroupByNode groups violations by the node they reference, preserving the
// order in which each node first appears. Annotation renderers draw one
// comment per group.
func GroupByNode(vs []Violation) []Group {
	index := make(map[uint64]int)
	var groups []Group
	for _, v := range vs {
		i, ok := index[v.Node.ID]
		if !ok {
			i = len(groups)
			index[v.Node.ID] = i
			groups = append(groups, Group{Node: v.Node, Page: v.Page, BBox: v.BBox})
		}
		groups[i].Violations = append(groups[i].Violations, v)
	}
	return groups
}

// Counts tallies violations per category.
func Counts(vs []Violation) map[Category]int {
	counts := make(map[Category]int)
	for _, v := range vs {
		counts[v.Category]++
	}
	return counts
}

// ByPage splits violations by 0-based page index. Violations without a page
// are keyed under -1.
func ByPage(vs []Violation) map[int][]Violation {
	out := make(map[int][]Violation)
	for _, v := range vs {
		out[v.Page] = append(out[v.Page], v)
	}
	return out
}
