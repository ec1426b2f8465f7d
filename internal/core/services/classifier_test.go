package services

import (
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trita-a/ricerca/internal/core/domain"
)

// fakeInfo implements fs.FileInfo for filter tests.
type fakeInfo struct {
	name string
	size int64
	mod  time.Time
}

func (f fakeInfo) Name() string       { return f.name }
func (f fakeInfo) Size() int64        { return f.size }
func (f fakeInfo) Mode() fs.FileMode  { return 0o644 }
func (f fakeInfo) ModTime() time.Time { return f.mod }
func (f fakeInfo) IsDir() bool        { return false }
func (f fakeInfo) Sys() any           { return nil }

func TestClassifier_IsHidden(t *testing.T) {
	c := NewClassifier(domain.SearchRequest{Flags: domain.SearchFlags{IgnoreHidden: true}})
	assert.True(t, c.IsHidden(".git"))
	assert.True(t, c.IsHidden(".bashrc"))
	assert.False(t, c.IsHidden("visible"))
	assert.False(t, c.IsHidden("."))

	off := NewClassifier(domain.SearchRequest{})
	assert.False(t, off.IsHidden(".git"))
}

func TestClassifier_IsExcluded(t *testing.T) {
	c := NewClassifier(domain.SearchRequest{
		ExcludedPaths: []string{"/data/Private", "**/node_modules", "*.bak", "  "},
	})

	tests := []struct {
		path string
		want bool
	}{
		{"/data/private", true},
		{"/DATA/PRIVATE/notes.txt", true},
		{"/data/private-other", false},
		{"/work/app/node_modules", true},
		{"/work/app/src", false},
		{"/work/old.BAK", true},
		{"/work/old.txt", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsExcluded(tt.path))
		})
	}
}

func TestClassifier_IsProblematicDir(t *testing.T) {
	c := NewClassifier(domain.SearchRequest{})
	assert.True(t, c.IsProblematicDir("$RECYCLE.BIN"))
	assert.True(t, c.IsProblematicDir("System Volume Information"))
	assert.True(t, c.IsProblematicDir("lost+found"))
	assert.False(t, c.IsProblematicDir("Documents"))
}

func TestClassifier_SkipFile(t *testing.T) {
	c := NewClassifier(domain.SearchRequest{Flags: domain.SearchFlags{ExcludeSystemExtensions: true}})

	tests := []struct {
		path     string
		category domain.SkipCategory
		skip     bool
	}{
		{"/x/setup.exe", domain.SkipSystem, true},
		{"/x/lib.DLL", domain.SkipSystem, true},
		{"/x/contract.pfile", domain.SkipProtected, true},
		{"/x/mail.rpmsg", domain.SkipProtected, true},
		{"/x/~$report.docx", domain.SkipProblematic, true},
		{"/x/download.crdownload", domain.SkipProblematic, true},
		{"/x/scratch.tmp", domain.SkipProblematic, true},
		{"/x/report.txt", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			category, reason, skip := c.SkipFile(tt.path)
			assert.Equal(t, tt.skip, skip)
			assert.Equal(t, tt.category, category)
			if skip {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestClassifier_SkipFile_SystemAllowedWhenNotExcluded(t *testing.T) {
	c := NewClassifier(domain.SearchRequest{})
	_, _, skip := c.SkipFile("/x/setup.exe")
	assert.False(t, skip)
}

func TestClassifier_SkipFile_AllowListOverrides(t *testing.T) {
	c := NewClassifier(domain.SearchRequest{
		Flags:   domain.SearchFlags{ExcludeSystemExtensions: true},
		Filters: domain.Filters{Extensions: []string{".exe", ".tmp"}},
	})
	_, _, skip := c.SkipFile("/x/setup.exe")
	assert.False(t, skip)
	_, _, skip = c.SkipFile("/x/scratch.tmp")
	assert.False(t, skip)
}

func TestClassifier_Priority(t *testing.T) {
	c := NewClassifier(domain.SearchRequest{})
	assert.Equal(t, domain.PriorityUser, c.Priority("/home/ann/Documents"))
	assert.Equal(t, domain.PriorityData, c.Priority("/srv/share/data"))
	assert.Equal(t, domain.PriorityDefault, c.Priority("/home/ann/misc"))
	assert.Equal(t, domain.PrioritySystem, c.Priority("/home/ann/project/node_modules"))
	assert.Equal(t, domain.PrioritySystem, c.Priority("C:/Windows/System32"))
	assert.Equal(t, domain.PriorityUser, c.Priority("/backup/Documents"))
}

func TestClassifier_PassesFilters(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c := NewClassifier(domain.SearchRequest{
		Filters: domain.Filters{
			MinSize:         10,
			MaxSize:         1000,
			ModifiedAfter:   now.AddDate(0, -1, 0),
			ModifiedBefore:  now,
			Extensions:      []string{".txt"},
			DepthExtensions: map[int][]string{2: {".md"}},
		},
	})

	tests := []struct {
		name     string
		info     fakeInfo
		depth    int
		ok       bool
		category domain.SkipCategory
	}{
		{"accepted", fakeInfo{"a.txt", 100, now.AddDate(0, 0, -1)}, 1, true, ""},
		{"too small", fakeInfo{"a.txt", 5, now.AddDate(0, 0, -1)}, 1, false, domain.SkipSize},
		{"too large", fakeInfo{"a.txt", 5000, now.AddDate(0, 0, -1)}, 1, false, domain.SkipSize},
		{"too old", fakeInfo{"a.txt", 100, now.AddDate(-1, 0, 0)}, 1, false, domain.SkipFilter},
		{"too new", fakeInfo{"a.txt", 100, now.AddDate(0, 0, 1)}, 1, false, domain.SkipFilter},
		{"extension refused", fakeInfo{"a.pdf", 100, now.AddDate(0, 0, -1)}, 1, false, domain.SkipFilter},
		{"depth override refuses global", fakeInfo{"a.txt", 100, now.AddDate(0, 0, -1)}, 2, false, domain.SkipFilter},
		{"depth override accepts", fakeInfo{"a.MD", 100, now.AddDate(0, 0, -1)}, 2, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, _, ok := c.PassesFilters(tt.info, tt.depth)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.category, category)
		})
	}
}
