package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// GenerateProjectPath creates a timestamped project filename in dir
func GenerateProjectPath(dir string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("project_%s.yaml", timestamp))
}

// SaveProject writes p to a new timestamped file in dir and returns its path.
func SaveProject(p *Project, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := GenerateProjectPath(dir)
	if err := WriteProject(p, path); err != nil {
		return "", fmt.Errorf("failed to save project: %w", err)
	}
	return path, nil
}

// FindLatestProject finds the most recently modified project file in dir
func FindLatestProject(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read projects directory: %w", err)
	}

	var projects []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && (strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			projects = append(projects, filepath.Join(dir, name))
		}
	}

	if len(projects) == 0 {
		return "", fmt.Errorf("no project files found in %s", dir)
	}

	// Sort by modification time (newest first)
	sort.Slice(projects, func(i, j int) bool {
		infoI, _ := os.Stat(projects[i])
		infoJ, _ := os.Stat(projects[j])
		return infoI.ModTime().After(infoJ.ModTime())
	})

	return projects[0], nil
}
