package utils

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

// PathResolver finds the schema dir and config file relative to the binary
type PathResolver struct {
	executableDir string
	homeDir       string
	configDir     string
}

// NewPathResolver creates a new path resolver that determines the executable location
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := &PathResolver{
		executableDir: filepath.Dir(execPath),
		homeDir:       homeDir,
		configDir:     platformConfigDir(homeDir),
	}
	log.Debugf("PathResolver initialized: execDir=%s, configDir=%s", pr.executableDir, pr.configDir)
	return pr, nil
}

func platformConfigDir(homeDir string) string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "sqlserve")
		}
		return filepath.Join(homeDir, "AppData", "Roaming", "sqlserve")
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "sqlserve")
	}
	switch runtime.GOOS {
	case "linux", "darwin":
		return filepath.Join(homeDir, ".config", "sqlserve")
	default:
		return filepath.Join(homeDir, ".sqlserve")
	}
}

// SchemaDirCandidates lists where GetSchemaDir looks, in order.
func (pr *PathResolver) SchemaDirCandidates(userSpecifiedPath string) []string {
	var candidates []string
	if filepath.IsAbs(userSpecifiedPath) {
		candidates = append(candidates, userSpecifiedPath)
	}
	candidates = append(candidates, filepath.Join(pr.executableDir, userSpecifiedPath))
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, userSpecifiedPath))
	}
	return append(candidates,
		filepath.Join(pr.configDir, "schemas"),
		filepath.Join(pr.executableDir, "schemas"),
	)
}

// GetSchemaDir returns the first candidate holding at least one .toml
// schema file. If none does, the executable-relative path is returned so
// errors point somewhere sensible.
func (pr *PathResolver) GetSchemaDir(userSpecifiedPath string) string {
	for _, path := range pr.SchemaDirCandidates(userSpecifiedPath) {
		if isSchemaDir(path) {
			log.Debugf("Found schema directory: %s", path)
			return path
		}
		log.Debugf("Schema directory candidate not valid: %s", path)
	}
	return filepath.Join(pr.executableDir, userSpecifiedPath)
}

func isSchemaDir(path string) bool {
	stems, err := ListTOMLStems(path)
	return err == nil && len(stems) > 0
}

// GetConfigPath returns the full path for a config file, falling back to
// other writable locations when the config dir is read-only.
func (pr *PathResolver) GetConfigPath(filename string) (string, error) {
	dirs := []string{
		pr.configDir,
		filepath.Join(pr.homeDir, ".sqlserve"),
		filepath.Join(os.TempDir(), "sqlserve"),
		pr.executableDir,
	}
	for i, dir := range dirs {
		if CheckDirStatus(dir).Writable {
			path := filepath.Join(dir, filename)
			if i > 0 {
				log.Warnf("Using fallback config location: %s", path)
			}
			return path, nil
		}
	}

	tempPath := filepath.Join(os.TempDir(), filename)
	log.Warnf("Using temporary config file: %s", tempPath)
	return tempPath, nil
}
