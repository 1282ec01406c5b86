package internal_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestTUIImportRestrictions ensures the TUI only drives state through the
// control surface and the bus
func TestTUIImportRestrictions(t *testing.T) {
	allowedPrefixes := []string{
		"surveyor/internal/api",      // Control surface and payload
		"surveyor/internal/events",   // Redraw notifications
		"surveyor/internal/log",      // Logging
		"surveyor/internal/theme",    // UI theming
		"surveyor/internal/survey",   // Zone table for cycling
		"surveyor/internal/routemap", // PNG export
		"surveyor/internal/tui",      // TUI can import its own subpackages
		"github.com/",                // Third-party packages
		"golang.org/",                // Standard library extensions
	}

	forbiddenPrefixes := []string{
		"surveyor/internal/game",     // No direct state access
		"surveyor/internal/tailer",   // No ingestion internals
		"surveyor/internal/journal",  // No direct database access
		"surveyor/internal/capture",  // No capture files
		"surveyor/internal/observer", // No network surface
		"surveyor/internal/config",   // Config is applied by main
	}

	checkImports(t, "./tui", allowedPrefixes, forbiddenPrefixes)
}

// TestCoreImportRestrictions keeps the survey model free of I/O and UI
func TestCoreImportRestrictions(t *testing.T) {
	allowedPrefixes := []string{
		"surveyor/internal/survey",
		"github.com/",
	}

	checkImports(t, "./survey", allowedPrefixes, nil)
}

// TestSinkImportRestrictions ensures journal, capture and observer only see
// the bus and never the state they observe
func TestSinkImportRestrictions(t *testing.T) {
	forbiddenPrefixes := []string{
		"surveyor/internal/game",
		"surveyor/internal/tui",
	}

	for _, dir := range []string{"./journal", "./capture", "./observer"} {
		checkImports(t, dir, nil, forbiddenPrefixes)
	}
}

func checkImports(t *testing.T, packageDir string, allowedPrefixes, forbiddenPrefixes []string) {
	err := filepath.Walk(packageDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		fset := token.NewFileSet()
		node, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("Failed to parse %s: %v", path, err)
			return nil
		}

		for _, imp := range node.Imports {
			importPath := strings.Trim(imp.Path.Value, `"`)

			// Skip standard library and relative imports
			if !strings.Contains(importPath, "surveyor/internal") {
				continue
			}

			// Check forbidden imports
			for _, forbidden := range forbiddenPrefixes {
				if strings.HasPrefix(importPath, forbidden) {
					t.Errorf("FORBIDDEN import in %s: %s", path, importPath)
				}
			}

			// Check allowed imports (if specified)
			if len(allowedPrefixes) > 0 {
				allowed := false
				for _, prefix := range allowedPrefixes {
					if strings.HasPrefix(importPath, prefix) {
						allowed = true
						break
					}
				}
				if !allowed {
					t.Errorf("DISALLOWED import in %s: %s (not in allowed list)", path, importPath)
				}
			}
		}

		return nil
	})

	if err != nil {
		t.Errorf("Failed to walk directory %s: %v", packageDir, err)
	}
}
