package storyblok

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"

	"github.com/fivetwenty-io/storyblok-client/internal/constants"
)

// Link is one record of the links endpoint. Besides id and parent_id it
// carries slug, name, is_folder, uuid and the other fields the API returns.
type Link map[string]any

// ID returns the link id and whether it could be read as an integer.
func (l Link) ID() (int64, bool) {
	return toInt64(l["id"])
}

// ParentID returns the parent id. A missing or null parent is the root (0).
func (l Link) ParentID() int64 {
	id, ok := toInt64(l["parent_id"])
	if !ok {
		return constants.LinkTreeRootID
	}

	return id
}

// TreeNode is one link with its nested children.
type TreeNode struct {
	Item     Link     `json:"item"     yaml:"item"`
	Children LinkTree `json:"children" yaml:"children"`
}

// LinkTree maps link ids to nodes.
type LinkTree map[int64]*TreeNode

// IDs returns the ids of this level in ascending order.
func (t LinkTree) IDs() []int64 {
	ids := make([]int64, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}

// Walk visits every node depth first, children in ascending id order. depth
// is 0 for top level links.
func (t LinkTree) Walk(fn func(depth int, node *TreeNode)) {
	type frame struct {
		node  *TreeNode
		depth int
	}

	stack := make([]frame, 0, len(t))

	pushLevel := func(level LinkTree, depth int) {
		ids := level.IDs()
		for i := len(ids) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: level[ids[i]], depth: depth})
		}
	}

	pushLevel(t, 0)

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		fn(f.depth, f.node)
		pushLevel(f.node.Children, f.depth+1)
	}
}

// Len returns the number of nodes in the whole tree.
func (t LinkTree) Len() int {
	n := 0

	t.Walk(func(int, *TreeNode) { n++ })

	return n
}

// BuildLinkTree nests links under their parents, starting from parent id 0.
//
// Links that never reach the root are left out. Each id is placed at most
// once, so duplicated ids and cycles cannot loop, and nesting stops at
// MaxLinkTreeDepth levels.
func BuildLinkTree(links []Link) LinkTree {
	byParent := make(map[int64][]Link)

	for _, link := range links {
		parent := link.ParentID()
		byParent[parent] = append(byParent[parent], link)
	}

	type frame struct {
		parent int64
		level  LinkTree
		depth  int
	}

	root := LinkTree{}
	placed := map[int64]bool{constants.LinkTreeRootID: true}
	stack := []frame{{parent: constants.LinkTreeRootID, level: root}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, link := range byParent[f.parent] {
			id, ok := link.ID()
			if !ok || placed[id] {
				continue
			}

			placed[id] = true

			node := &TreeNode{Item: link, Children: LinkTree{}}
			f.level[id] = node

			if f.depth+1 < constants.MaxLinkTreeDepth {
				stack = append(stack, frame{parent: id, level: node.Children, depth: f.depth + 1})
			}
		}
	}

	return root
}

// Links returns the records under the "links" field of the body. The API
// returns them either as a list or as an object keyed by uuid; objects are
// read in key order.
func (r *Response) Links() []Link {
	if r == nil {
		return nil
	}

	raw, ok := r.Body.Get("links")
	if !ok {
		return nil
	}

	var items []any

	switch t := raw.(type) {
	case []any:
		items = t
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}

		slices.Sort(keys)

		for _, k := range keys {
			items = append(items, t[k])
		}
	default:
		return nil
	}

	links := make([]Link, 0, len(items))

	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			links = append(links, Link(m))
		}
	}

	return links
}

// Tree builds a LinkTree from the links in the body. A response without a
// body or without links yields an empty tree.
func (r *Response) Tree() LinkTree {
	return BuildLinkTree(r.Links())
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}

		f, err := t.Float64()
		if err != nil {
			return 0, false
		}

		return floatToInt64(f)
	case float64:
		return floatToInt64(t)
	case int:
		return int64(t), true
	case int64:
		return t, true
	case string:
		i, err := strconv.ParseInt(t, 10, 64)

		return i, err == nil
	default:
		return 0, false
	}
}

func floatToInt64(f float64) (int64, bool) {
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}

	return int64(f), true
}
