package sqlstmt

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyAttached is returned when a node is attached to a parent
	// while it is still owned by another one.
	ErrAlreadyAttached = errors.New("node already attached to another parent")

	// ErrSharedNode is returned when the same node object is reachable from
	// two positions of a tree.
	ErrSharedNode = errors.New("node shared between two tree positions")
)

// Link assigns the parent back-reference of every node below root.
//
// Link is idempotent on a well-formed tree. It fails if a node is already
// owned by a different parent or appears at more than one position; in
// that case the tree is left partially linked and must not be used.
func Link(root Part) error {
	if isNil(root) {
		return nil
	}
	seen := map[Part]struct{}{root: {}}
	return link(root, "", seen)
}

func link(parent Part, path string, seen map[Part]struct{}) error {
	for _, child := range Children(parent) {
		label := child.Label
		if path != "" {
			label = path + "." + label
		}
		if _, dup := seen[child.Part]; dup {
			return fmt.Errorf("%s: %w", label, ErrSharedNode)
		}
		seen[child.Part] = struct{}{}

		b := child.Part.base()
		if b.parent != nil && b.parent != parent {
			return fmt.Errorf("%s: %w", label, ErrAlreadyAttached)
		}
		b.parent = parent

		if err := link(child.Part, label, seen); err != nil {
			return err
		}
	}
	return nil
}

// Attach links child under parent. It fails with ErrAlreadyAttached if child
// is owned elsewhere.
func Attach(parent, child Part) error {
	if isNil(child) {
		return nil
	}
	b := child.base()
	if b.parent != nil && b.parent != parent {
		return fmt.Errorf("attach %s to %s: %w", child.Kind(), parent.Kind(), ErrAlreadyAttached)
	}
	b.parent = parent
	return nil
}

// Detach clears the parent back-reference of p, making it a root.
func Detach(p Part) {
	if isNil(p) {
		return
	}
	p.base().parent = nil
}
