package services

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/trita-a/ricerca/internal/core/domain"
)

// systemExtensions are executables, libraries and OS images. They are
// skipped when the request asks to exclude system files.
var systemExtensions = setOf(
	".exe", ".dll", ".sys", ".drv", ".ocx", ".cpl", ".scr", ".com",
	".msi", ".msp", ".msu", ".cab", ".cat", ".mui", ".efi",
	".so", ".dylib", ".ko", ".o", ".obj", ".lib", ".a", ".pdb",
	".pyc", ".pyo", ".class", ".iso", ".img", ".vmdk", ".vhd", ".vhdx",
)

// protectedExtensions are rights-management wrappers that cannot be read
// without the issuing service.
var protectedExtensions = setOf(
	".pfile", ".ptxt", ".ppdf", ".pjpg", ".pjpeg", ".ppng", ".pgif",
	".ptif", ".ptiff", ".pxml", ".rpmsg",
)

// problematicSuffixes mark files that are incomplete or locked by another
// program.
var problematicSuffixes = []string{
	".tmp", ".temp", ".crdownload", ".part", ".partial", ".download",
	".swp", ".swo", ".lock", "~",
}

var problematicPrefixes = []string{"~$", ".~lock."}

// problematicDirs are directory names never worth descending into.
var problematicDirs = setOf(
	"$recycle.bin", "recycler", "system volume information", "lost+found",
	"config.msi", "$winreagent", "windowsapps", "$windows.~bt", "$windows.~ws",
	".trashes", ".trash", ".spotlight-v100", ".fseventsd", ".documentrevisions-v100",
	".temporaryitems",
)

// Folder names used to rank blocks. Matching is on any path component.
var (
	userFolders = setOf(
		"documents", "my documents", "desktop", "downloads", "onedrive",
		"dropbox", "google drive", "icloud drive", "projects", "work",
		"pictures", "music", "videos", "mail",
	)
	dataFolders = setOf(
		"data", "archive", "archives", "backup", "backups", "shared",
		"public", "share", "srv", "export", "reports",
	)
	systemFolders = setOf(
		"windows", "program files", "program files (x86)", "programdata",
		"appdata", "system32", "syswow64", "library", "system", "applications",
		"usr", "bin", "sbin", "lib", "lib64", "etc", "var", "opt", "proc", "dev",
		"node_modules", "vendor", "site-packages", "__pycache__", "cache", ".cache",
	)
)

func setOf(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}

// Classifier decides which entries are visited and analysed.
// It is built once per run and is safe for concurrent use.
type Classifier struct {
	ignoreHidden  bool
	excludeSystem bool
	prefixes      []string
	globs         []string
	filters       domain.Filters
	allowed       map[string]bool
}

// NewClassifier builds the classifier for a normalised request.
func NewClassifier(req domain.SearchRequest) *Classifier {
	c := &Classifier{
		ignoreHidden:  req.Flags.IgnoreHidden,
		excludeSystem: req.Flags.ExcludeSystemExtensions,
		filters:       req.Filters,
		allowed:       make(map[string]bool),
	}

	for _, p := range req.ExcludedPaths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		p = strings.ToLower(filepath.ToSlash(p))
		if strings.ContainsAny(p, "*?[{") {
			c.globs = append(c.globs, p)
			continue
		}
		c.prefixes = append(c.prefixes, strings.TrimSuffix(p, "/"))
	}

	for _, ext := range req.Filters.Extensions {
		c.allowed[ext] = true
	}
	for _, exts := range req.Filters.DepthExtensions {
		for _, ext := range exts {
			c.allowed[ext] = true
		}
	}
	return c
}

// IsHidden reports whether name is a dot-file and hidden entries are ignored.
func (c *Classifier) IsHidden(name string) bool {
	return c.ignoreHidden && isDotName(name)
}

func isDotName(name string) bool {
	return len(name) > 1 && name[0] == '.' && name != ".."
}

// IsExcluded reports whether path matches an excluded prefix or glob.
// Matching is case-insensitive.
func (c *Classifier) IsExcluded(path string) bool {
	p := strings.ToLower(filepath.ToSlash(path))
	for _, prefix := range c.prefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	rel := strings.TrimPrefix(p, "/")
	for _, glob := range c.globs {
		if ok, err := doublestar.Match(glob, p); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(glob, rel); err == nil && ok {
			return true
		}
		// Patterns without a directory part also match the base name.
		if !strings.Contains(glob, "/") {
			if ok, err := doublestar.Match(glob, filepath.Base(p)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// IsProblematicDir reports whether a directory name is on the never-visit list.
func (c *Classifier) IsProblematicDir(name string) bool {
	return problematicDirs[strings.ToLower(name)]
}

// SkipFile applies the skip policy to a file path. Extensions on the
// caller's allow-list are never skipped.
func (c *Classifier) SkipFile(path string) (domain.SkipCategory, string, bool) {
	name := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(name)
	if c.allowed[ext] {
		return "", "", false
	}

	if c.excludeSystem && systemExtensions[ext] {
		return domain.SkipSystem, "system file extension " + ext, true
	}
	if protectedExtensions[ext] {
		return domain.SkipProtected, "rights-management protected " + ext, true
	}
	for _, prefix := range problematicPrefixes {
		if strings.HasPrefix(name, prefix) {
			return domain.SkipProblematic, "lock file", true
		}
	}
	for _, suffix := range problematicSuffixes {
		if strings.HasSuffix(name, suffix) {
			return domain.SkipProblematic, "temporary or partial file", true
		}
	}
	return "", "", false
}

// Priority ranks a directory: user folders first, system folders last.
// The most specific band found on the path wins, except that any system
// component demotes the whole subtree.
func (c *Classifier) Priority(path string) int {
	priority := domain.PriorityDefault
	for _, part := range strings.Split(strings.ToLower(filepath.ToSlash(path)), "/") {
		switch {
		case systemFolders[part]:
			return domain.PrioritySystem
		case userFolders[part]:
			priority = domain.PriorityUser
		case dataFolders[part] && priority != domain.PriorityUser:
			priority = domain.PriorityData
		}
	}
	return priority
}

// PassesFilters applies the advanced filters. It returns the skip category
// and reason when the file is filtered out.
func (c *Classifier) PassesFilters(info fs.FileInfo, depth int) (domain.SkipCategory, string, bool) {
	f := c.filters
	size := info.Size()
	if size < f.MinSize {
		return domain.SkipSize, "smaller than minimum size", false
	}
	if f.MaxSize > 0 && size > f.MaxSize {
		return domain.SkipSize, "larger than maximum size", false
	}

	mod := info.ModTime()
	if !f.ModifiedAfter.IsZero() && mod.Before(f.ModifiedAfter) {
		return domain.SkipFilter, "modified before range", false
	}
	if !f.ModifiedBefore.IsZero() && mod.After(f.ModifiedBefore) {
		return domain.SkipFilter, "modified after range", false
	}

	if exts := f.AllowedExtensions(depth); len(exts) > 0 {
		ext := strings.ToLower(filepath.Ext(info.Name()))
		for _, allowed := range exts {
			if ext == allowed {
				return "", "", true
			}
		}
		return domain.SkipFilter, "extension not allowed at depth", false
	}
	return "", "", true
}
