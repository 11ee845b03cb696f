// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"encoding/hex"
	"fmt"
)

// AsBool gets the boolean value of the byte array.  Any non-zero byte makes
// the value true, except for a lone sign bit in the final byte which is
// negative zero and therefore false.
func AsBool(t []byte) bool {
	for i := range t {
		if t[i] != 0 {
			// Negative 0 is also considered false.
			if i == len(t)-1 && t[i] == 0x80 {
				return false
			}
			return true
		}
	}
	return false
}

// FromBool converts a boolean into the appropriate byte array.
func FromBool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return nil
}

// Stack represents a stack of immutable objects to be used with bitcoin
// scripts.  Objects may be shared, therefore in usage if a value is to be
// changed it *must* be deep-copied first to avoid changing other values on
// the stack.
//
// Positional arguments are relative to the top of the stack: -1 is the most
// recently pushed item, -2 the one below it and so on.  Accessing a position
// that does not exist is a programming error and panics; callers are
// expected to check Depth first.
type Stack struct {
	stk [][]byte
}

// NewStack returns a stack holding a copy of the passed items, with the last
// item on top.
func NewStack(items [][]byte) *Stack {
	s := &Stack{stk: make([][]byte, 0, len(items))}
	for _, item := range items {
		s.Push(item)
	}
	return s
}

// Depth returns the number of items on the stack.
func (s *Stack) Depth() int {
	return len(s.stk)
}

// Push adds the given item to the top of the stack.
func (s *Stack) Push(data []byte) {
	s.stk = append(s.stk, data)
}

// Pop removes and returns the top item of the stack.
func (s *Stack) Pop() []byte {
	item := s.Top(-1)
	s.stk = s.stk[:len(s.stk)-1]
	return item
}

// index converts a top-relative position into an index into the backing
// slice.
func (s *Stack) index(i int) int {
	if i >= 0 || -i > len(s.stk) {
		panic(fmt.Sprintf("stack position %d out of range for depth %d",
			i, len(s.stk)))
	}
	return len(s.stk) + i
}

// Top returns the item at top-relative position i without removing it.
func (s *Stack) Top(i int) []byte {
	return s.stk[s.index(i)]
}

// Swap exchanges the items at top-relative positions i and j.
func (s *Stack) Swap(i, j int) {
	a, b := s.index(i), s.index(j)
	s.stk[a], s.stk[b] = s.stk[b], s.stk[a]
}

// Erase removes the items in the top-relative range [from, to).  A to of
// zero means through the top of the stack.
func (s *Stack) Erase(from, to int) {
	start := s.index(from)
	end := len(s.stk)
	if to != 0 {
		end = s.index(to)
	}
	if end < start {
		panic(fmt.Sprintf("invalid stack range [%d, %d)", from, to))
	}
	s.stk = append(s.stk[:start], s.stk[end:]...)
}

// EraseAt removes the item at top-relative position i.
func (s *Stack) EraseAt(i int) {
	idx := s.index(i)
	s.stk = append(s.stk[:idx], s.stk[idx+1:]...)
}

// Insert places data so that it ends up below the item currently at
// top-relative position pos.
func (s *Stack) Insert(pos int, data []byte) {
	idx := s.index(pos)
	s.stk = append(s.stk, nil)
	copy(s.stk[idx+1:], s.stk[idx:])
	s.stk[idx] = data
}

// Clone returns a deep copy of the stack.  Modifying either stack afterwards
// does not affect the other.
func (s *Stack) Clone() *Stack {
	return &Stack{stk: s.Items()}
}

// Items returns a deep copy of the stack contents ordered from bottom to
// top.
func (s *Stack) Items() [][]byte {
	items := make([][]byte, len(s.stk))
	for i, item := range s.stk {
		if item != nil {
			items[i] = append([]byte{}, item...)
		} else {
			items[i] = []byte{}
		}
	}
	return items
}

// Resize truncates the stack to n items.  It never grows the stack.
func (s *Stack) Resize(n int) {
	if n < 0 || n > len(s.stk) {
		panic(fmt.Sprintf("invalid stack size %d for depth %d", n,
			len(s.stk)))
	}
	s.stk = s.stk[:n]
}

// String returns the stack in a readable format.
func (s *Stack) String() string {
	var result string
	for _, stack := range s.stk {
		if len(stack) == 0 {
			result += "00000000  <empty>\n"
		}
		result += hex.Dump(stack)
	}
	return result
}
