package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// AppDirName is the per-root directory holding tracelink state
	AppDirName = ".tracelink"
	// ConfigFileName is the configuration file inside the app dir
	ConfigFileName = "config.json"
	// DatabaseFileName is the run-history database inside the app dir
	DatabaseFileName = "tracelink.db"
	// WorkspaceFileName is the multi-root workspace file inside the app dir
	WorkspaceFileName = "workspace.toml"
	// ManifestFileName is the known-identifier manifest at the scan root
	ManifestFileName = "TRACE.toml"
)

// CanonicalizePath converts an absolute path to a root-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to the scan root
// - Converts backslashes to forward slashes
func CanonicalizePath(absolutePath string, rootDir string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		// If the file doesn't exist yet, use the path as-is
		if os.IsNotExist(err) {
			resolved = absolutePath
		} else {
			return "", err
		}
	}

	rootResolved, err := filepath.EvalSymlinks(rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			rootResolved = rootDir
		} else {
			return "", err
		}
	}

	relativePath, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(relativePath), nil
}

// IsWithinRoot checks if a path is inside the scan root
func IsWithinRoot(path string, rootDir string) bool {
	canonical, err := CanonicalizePath(path, rootDir)
	if err != nil {
		return false
	}
	return !strings.HasPrefix(canonical, "..")
}

// NormalizePath normalizes a path by converting backslashes to forward slashes
func NormalizePath(path string) string {
	return filepath.ToSlash(path)
}

// AppDir returns the tracelink state directory for a scan root
func AppDir(rootDir string) string {
	return filepath.Join(rootDir, AppDirName)
}

// EnsureAppDir creates the tracelink state directory if needed
func EnsureAppDir(rootDir string) (string, error) {
	dir := AppDir(rootDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// ConfigPath returns the configuration file path for a scan root
func ConfigPath(rootDir string) string {
	return filepath.Join(AppDir(rootDir), ConfigFileName)
}

// DatabasePath returns the run-history database path for a scan root
func DatabasePath(rootDir string) string {
	return filepath.Join(AppDir(rootDir), DatabaseFileName)
}

// WorkspacePath returns the workspace file path for a scan root
func WorkspacePath(rootDir string) string {
	return filepath.Join(AppDir(rootDir), WorkspaceFileName)
}

// ManifestPath returns the identifier manifest path for a scan root
func ManifestPath(rootDir string) string {
	return filepath.Join(rootDir, ManifestFileName)
}
