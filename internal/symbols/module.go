package symbols

import (
	"path/filepath"
	"strings"
)

// ModuleName derives a dotted module name for path relative to root.
// "pkg/mod.py" is "pkg.mod" and "pkg/__init__.py" is "pkg".
func ModuleName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, ".pyi")
	rel = strings.TrimSuffix(rel, ".py")
	rel = strings.TrimSuffix(rel, "/__init__")
	if rel == "__init__" {
		return filepath.Base(filepath.Dir(path))
	}
	return strings.ReplaceAll(rel, "/", ".")
}

func isPackageFile(path string) bool {
	base := filepath.Base(path)
	return base == "__init__.py" || base == "__init__.pyi"
}

// ResolveRelative resolves `from <level dots><module> import ...` inside module.
func ResolveRelative(module string, isPackage bool, level int, target string) string {
	if level == 0 {
		return target
	}
	parts := strings.Split(module, ".")
	if !isPackage {
		parts = parts[:len(parts)-1]
	}
	drop := level - 1
	if drop > len(parts) {
		drop = len(parts)
	}
	parts = parts[:len(parts)-drop]
	return joinModule(strings.Join(parts, "."), target)
}

func joinModule(base, name string) string {
	switch {
	case base == "":
		return name
	case name == "":
		return base
	}
	return base + "." + name
}
