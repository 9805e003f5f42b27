package toc

import (
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/archive"
)

// Flat builds a one-level TOC listing every page-like entry, titled by file
// name. It stands in for archives that ship no .hhc or a broken one.
func Flat(entries []archive.Entry) []TopicNode {
	var pages []archive.Entry
	for _, e := range entries {
		if e.IsPageLike() {
			pages = append(pages, e)
		}
	}
	sort.SliceStable(pages, func(i, j int) bool {
		return strings.ToLower(pages[i].Path) < strings.ToLower(pages[j].Path)
	})

	forest := make([]TopicNode, 0, len(pages))
	for _, p := range pages {
		forest = append(forest, TopicNode{
			Title:    p.Filename(),
			Target:   p.Path,
			Children: []TopicNode{},
		})
	}
	return forest
}

// Walk visits every node depth-first, parents before children. depth is 0
// for roots. Returning false from fn stops the walk.
func Walk(forest []TopicNode, fn func(n TopicNode, depth int) bool) {
	walk(forest, 0, fn)
}

func walk(nodes []TopicNode, depth int, fn func(TopicNode, int) bool) bool {
	for _, n := range nodes {
		if !fn(n, depth) {
			return false
		}
		if !walk(n.Children, depth+1, fn) {
			return false
		}
	}
	return true
}

// Count returns the number of nodes in the forest.
func Count(forest []TopicNode) int {
	total := 0
	Walk(forest, func(TopicNode, int) bool {
		total++
		return true
	})
	return total
}

// FirstTarget returns the first target found depth-first, or "".
func FirstTarget(forest []TopicNode) string {
	var target string
	Walk(forest, func(n TopicNode, _ int) bool {
		if n.HasTarget() {
			target = n.Target
			return false
		}
		return true
	})
	return target
}
