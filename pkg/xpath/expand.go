package xpath

import (
	"fmt"
	"os"
	"path"
	"strings"
)

// Expand resolves a leading "~/" to the user's home directory.
func Expand(rawPath string) (string, error) {
	if !strings.HasPrefix(rawPath, "~/") {
		return rawPath, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to get user home dir: %w", err)
	}
	return path.Join(homeDir, rawPath[2:]), nil
}
