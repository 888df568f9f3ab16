package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"simpatch/internal/shared"

	"github.com/patrickmn/go-cache"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultPreviewFilename is the audio file expected inside every simfile folder.
const DefaultPreviewFilename = "preview.mp3"

// Match records which strategy located a folder.
type Match string

const (
	MatchNone            Match = "none"
	MatchExact           Match = "exact"
	MatchCaseInsensitive Match = "case-insensitive"
	MatchAlias           Match = "alias"
)

// Folder is the outcome of a folder lookup. Path is set even when the lookup
// fails and then holds the last candidate that was tried.
type Folder struct {
	Path  string
	Match Match
}

// Sound is a located preview file.
type Sound struct {
	Path string
	Size int64
}

// Resolver maps simfile titles to folders under a root directory.
// It is not safe for concurrent use.
type Resolver struct {
	root        string
	aliases     AliasMap
	previewName string
	maxSize     int64

	listings *cache.Cache
	caser    cases.Caser
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPreviewFilename overrides DefaultPreviewFilename.
func WithPreviewFilename(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.previewName = name
		}
	}
}

// WithMaxSize rejects preview files larger than n bytes. Zero disables the check.
func WithMaxSize(n int64) Option {
	return func(r *Resolver) { r.maxSize = n }
}

// WithListingTTL expires the cached root listing after ttl.
// The default keeps it for the life of the resolver.
func WithListingTTL(ttl time.Duration) Option {
	return func(r *Resolver) { r.listings = cache.New(ttl, 2*ttl) }
}

// NewResolver creates a Resolver for the simfile tree at root.
func NewResolver(root string, aliases AliasMap, opts ...Option) *Resolver {
	if aliases == nil {
		aliases = AliasMap{}
	}
	r := &Resolver{
		root:        root,
		aliases:     aliases,
		previewName: DefaultPreviewFilename,
		listings:    cache.New(cache.NoExpiration, 0),
		caser:       cases.Lower(language.Und),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveFolder finds the folder for title. Strategies are tried in order:
// exact name, case-insensitive name, alias map. The first hit wins.
func (r *Resolver) ResolveFolder(title string) (Folder, error) {
	title = strings.TrimSpace(title)

	// 1. Exact name
	exact, ok := r.join(title)
	if ok && isDir(exact) {
		return Folder{Path: exact, Match: MatchExact}, nil
	}

	// 2. Case-insensitive scan of the root entries
	names, err := r.rootEntries()
	if err != nil {
		return Folder{Path: exact, Match: MatchNone}, err
	}
	want := r.caser.String(title)
	for _, name := range names {
		if r.caser.String(name) == want {
			return Folder{Path: filepath.Join(r.root, name), Match: MatchCaseInsensitive}, nil
		}
	}

	// 3. Alias map, falling back to the title itself
	name, aliased := r.aliases.Folder(title)
	candidate, ok := r.join(name)
	if !ok {
		return Folder{Path: filepath.Join(r.root, name), Match: MatchNone},
			fmt.Errorf("%w: %q is not a folder name under the simfile directory", shared.ErrFolderNotFound, name)
	}
	if isDir(candidate) {
		match := MatchAlias
		if !aliased {
			match = MatchExact
		}
		return Folder{Path: candidate, Match: match}, nil
	}
	return Folder{Path: candidate, Match: MatchNone}, fmt.Errorf("%w: %s", shared.ErrFolderNotFound, candidate)
}

// ResolveSound locates the preview file inside folder.
func (r *Resolver) ResolveSound(folder string) (Sound, error) {
	path := filepath.Join(folder, r.previewName)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Sound{Path: path}, fmt.Errorf("%w: %s", shared.ErrSoundFileNotFound, path)
		}
		return Sound{Path: path}, fmt.Errorf("could not stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return Sound{Path: path}, fmt.Errorf("%w: %s is not a regular file", shared.ErrSoundFileNotFound, path)
	}
	if r.maxSize > 0 && info.Size() > r.maxSize {
		return Sound{Path: path, Size: info.Size()},
			fmt.Errorf("%w: %s is %d bytes (limit %d)", shared.ErrSoundFileTooLarge, path, info.Size(), r.maxSize)
	}
	return Sound{Path: path, Size: info.Size()}, nil
}

// rootEntries lists the names directly under root, sorted by name.
// The listing is read once and reused for every title.
func (r *Resolver) rootEntries() ([]string, error) {
	if cached, ok := r.listings.Get(r.root); ok {
		return cached.([]string), nil
	}
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("could not list simfile directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	r.listings.Set(r.root, names, cache.DefaultExpiration)
	return names, nil
}

// join resolves name under root and rejects anything that is the root itself
// or lies outside it.
func (r *Resolver) join(name string) (string, bool) {
	if name == "" {
		return r.root, false
	}
	cleanedRoot := filepath.Clean(r.root)
	cleaned := filepath.Join(cleanedRoot, name)
	rel, err := filepath.Rel(cleanedRoot, cleaned)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return cleaned, false
	}
	return cleaned, true
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
