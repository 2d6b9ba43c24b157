package inmemdb

// SetNewIDFunc replaces the teacher ID generator and returns the previous one.
func SetNewIDFunc(f func() string) func() string {
	prev := newIDFunc
	newIDFunc = f
	return prev
}
