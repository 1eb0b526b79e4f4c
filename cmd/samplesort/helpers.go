package main

import "time"

const timeRounding = time.Millisecond

// shortID abbreviates a run UUID for terminal output.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
