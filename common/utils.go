package common

import "fmt"

// AssertTrue panics when an internal invariant does not hold. It guards
// conditions that can only fail on corrupted input data.
func AssertTrue(ok bool, format string, args ...any) {
	if ok {
		return
	}
	panic(fmt.Sprintf("assertion failed: "+format, args...))
}

func DoWhile(do func() (stop bool), while func() bool) {
	if do() {
		return
	}
	for while() {
		if do() {
			return
		}
	}
}

// IndexOf returns the first position of v in s, or -1.
func IndexOf[T comparable](s []T, v T) int {
	for i := range s {
		if s[i] == v {
			return i
		}
	}
	return -1
}

// Contains reports whether v is present in s.
func Contains[T comparable](s []T, v T) bool {
	return IndexOf(s, v) >= 0
}

// AppendUnique appends v to s unless it is already present.
func AppendUnique[T comparable](s []T, v T) []T {
	if Contains(s, v) {
		return s
	}
	return append(s, v)
}
