// Package utils holds small helpers shared by the CLI and the API server.
package utils

import (
	"fmt"
	"net"
	"os"
)

// FileExists reports whether path exists on disk.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// FindAvailableAPIPort probes upward from the default API port until it
// finds one that can be bound.
func FindAvailableAPIPort() int {
	port := 8080
	for {
		listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err == nil {
			listener.Close()
			return port
		}
		port++
	}
}
