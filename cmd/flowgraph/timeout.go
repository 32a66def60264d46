package main

import (
	"fmt"
	"time"
)

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid --timeout %q: %w", s, err)
	}
	return d, nil
}
