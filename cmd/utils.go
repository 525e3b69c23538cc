package cmd

import (
	"os"
	"strconv"
	"time"
)

// fileExists checks if a file exists and is readable
func FileExists(filePath string) bool {
	file, err := os.Open(filePath)
	if err != nil {
		return false
	}
	defer file.Close()
	return true
}

// Shared Helper function. Parse a whole-second duration from text.
func ParseSeconds(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

// Shared Helper function. Parse the relayer batch size, 0 = deferred
// to the burner's configured limit.
func ParseBatch(raw string) uint8 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}
