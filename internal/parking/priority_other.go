//go:build !linux

package parking

func applyPriority(name string, p Priority) {}
