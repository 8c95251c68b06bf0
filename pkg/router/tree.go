package router

import "strings"

// node is a radix tree node.
type node struct {
	// segment is the static path segment this node matches.
	segment string

	// isParam indicates a parameter segment (:id).
	isParam bool

	// isCatchAll indicates a catch-all segment (*rest).
	isCatchAll bool

	// paramName is the parameter name without the : or * prefix.
	paramName string

	// endpoints maps HTTP-style methods to handlers.
	endpoints map[string]Handler

	// children are static segment children.
	children []*node

	// paramChild is the dynamic parameter child.
	paramChild *node

	// catchAllChild consumes the rest of the path.
	catchAllChild *node
}

// newNode creates a node for a static segment.
func newNode(segment string) *node {
	return &node{segment: segment}
}

// findChild finds a static child with an exact segment match.
func (n *node) findChild(segment string) *node {
	for _, child := range n.children {
		if child.segment == segment {
			return child
		}
	}
	return nil
}

// addChild adds or retrieves a static child for the given segment.
func (n *node) addChild(segment string) *node {
	if child := n.findChild(segment); child != nil {
		return child
	}
	child := newNode(segment)
	n.children = append(n.children, child)
	return child
}

// addParamChild sets the parameter child node.
func (n *node) addParamChild(name string) *node {
	if n.paramChild != nil {
		return n.paramChild
	}
	child := newNode("")
	child.isParam = true
	child.paramName = name
	n.paramChild = child
	return child
}

// addCatchAllChild sets the catch-all child node.
func (n *node) addCatchAllChild(name string) *node {
	if n.catchAllChild != nil {
		return n.catchAllChild
	}
	child := newNode("")
	child.isCatchAll = true
	child.paramName = name
	n.catchAllChild = child
	return child
}

// insert walks the pattern, creating nodes as needed, and returns the leaf.
func (n *node) insert(pattern string) (*node, error) {
	current := n
	for _, seg := range splitPath(pattern) {
		switch {
		case strings.HasPrefix(seg, "*"):
			if len(seg) == 1 {
				return nil, ErrInvalidPattern
			}
			current = current.addCatchAllChild(seg[1:])
			// Catch-all consumes the rest of the pattern.
			return current, nil
		case strings.HasPrefix(seg, ":"):
			if len(seg) == 1 {
				return nil, ErrInvalidPattern
			}
			current = current.addParamChild(seg[1:])
		default:
			current = current.addChild(seg)
		}
	}
	return current, nil
}

// match finds a node for the given path segments, extracting parameters.
// Static children are tried first, then the parameter child (with
// backtracking), then the catch-all.
func (n *node) match(segments []string, params Params) (*node, bool) {
	if len(segments) == 0 {
		if len(n.endpoints) > 0 {
			return n, true
		}
		return nil, false
	}

	segment := segments[0]
	remaining := segments[1:]

	if child := n.findChild(segment); child != nil {
		if leaf, ok := child.match(remaining, params); ok {
			return leaf, true
		}
	}

	if n.paramChild != nil {
		params[n.paramChild.paramName] = segment
		if leaf, ok := n.paramChild.match(remaining, params); ok {
			return leaf, true
		}
		// Backtrack on failure
		delete(params, n.paramChild.paramName)
	}

	if n.catchAllChild != nil && len(n.catchAllChild.endpoints) > 0 {
		params[n.catchAllChild.paramName] = strings.Join(segments, "/")
		return n.catchAllChild, true
	}

	return nil, false
}

// splitPath splits a path into segments, dropping empty ones so "/a//b/"
// and "/a/b" agree.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
