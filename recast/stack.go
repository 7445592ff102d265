package recast

// Stack is a slice-backed LIFO that keeps its capacity across Clear.
type Stack[T any] struct {
	data []T
}

func NewStack[T any](capacity int) *Stack[T] {
	return &Stack[T]{data: make([]T, 0, capacity)}
}

func (s *Stack[T]) Data() []T {
	return s.data
}

func (s *Stack[T]) Clear() {
	s.data = s.data[:0]
}

func (s *Stack[T]) Pop() T {
	e := s.data[s.Len()-1]
	s.data = s.data[:s.Len()-1]
	return e
}

func (s *Stack[T]) Push(value T) {
	s.data = append(s.data, value)
}

func (s *Stack[T]) Len() int {
	return len(s.data)
}

func (s *Stack[T]) Empty() bool {
	return s.Len() == 0
}

func (s *Stack[T]) Index(index int) T {
	return s.data[index]
}

func (s *Stack[T]) SetByIndex(index int, value T) {
	s.data[index] = value
}

// Resize grows the stack with value or truncates it to size.
func (s *Stack[T]) Resize(size int, value T) {
	if size <= s.Len() {
		s.data = s.data[:size]
		return
	}
	for s.Len() < size {
		s.data = append(s.data, value)
	}
}
