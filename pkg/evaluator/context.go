package evaluator

import (
	"fmt"

	"github.com/sandrolain/actemplate/pkg/types"
)

// Frame is one data scope on a ContextStack.
type Frame struct {
	// Data is the value bound as $data for this scope.
	Data types.Value
	// Index is the repetition ordinal, meaningful when HasIndex is set.
	Index    int
	HasIndex bool
}

// ContextStack holds the nested data scopes created while walking a
// template. The first frame is the root data and is never popped.
//
// A ContextStack is owned by a single expansion and is not safe for
// concurrent use.
type ContextStack struct {
	frames []Frame
}

// NewContextStack creates a stack whose root frame holds root.
func NewContextStack(root types.Value) *ContextStack {
	frames := make([]Frame, 1, 8)
	frames[0] = Frame{Data: root}
	return &ContextStack{frames: frames}
}

// Push opens a scope bound to an object $data. The enclosing $index, if
// any, stays visible inside it.
func (s *ContextStack) Push(data types.Value) {
	s.frames = append(s.frames, Frame{Data: data})
}

// PushIndexed opens the scope of one array repetition.
func (s *ContextStack) PushIndexed(data types.Value, index int) {
	s.frames = append(s.frames, Frame{Data: data, Index: index, HasIndex: true})
}

// Pop closes the innermost scope. The root frame is never removed.
func (s *ContextStack) Pop() {
	if len(s.frames) > 1 {
		s.frames[len(s.frames)-1] = Frame{}
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Depth returns the number of frames, root included.
func (s *ContextStack) Depth() int {
	return len(s.frames)
}

// Root returns the outermost data ($root).
func (s *ContextStack) Root() types.Value {
	return s.frames[0].Data
}

// Data returns the innermost data ($data).
func (s *ContextStack) Data() types.Value {
	return s.frames[len(s.frames)-1].Data
}

// Index returns the nearest enclosing repetition ordinal ($index).
func (s *ContextStack) Index() (int, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].HasIndex {
			return s.frames[i].Index, true
		}
	}
	return 0, false
}

// Lookup resolves a bare identifier: the innermost frame whose data is an
// object holding the key wins.
func (s *ContextStack) Lookup(name string) (types.Value, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		obj, ok := s.frames[i].Data.AsObject()
		if !ok {
			continue
		}
		if v, ok := obj.Get(name); ok {
			return v, true
		}
	}
	return types.Undefined(), false
}

// String returns a string representation of the stack.
func (s *ContextStack) String() string {
	idx, ok := s.Index()
	if !ok {
		return fmt.Sprintf("ContextStack{depth=%d}", len(s.frames))
	}
	return fmt.Sprintf("ContextStack{depth=%d, index=%d}", len(s.frames), idx)
}
