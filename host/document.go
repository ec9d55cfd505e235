package host

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/armon/go-radix"

	"github.com/Kaccad/Juicyscore-test/log"
)

// FontSet holds the installed font families. Lookups are case insensitive.
type FontSet struct {
	lock sync.RWMutex
	tree *radix.Tree
}

func newFontSet() *FontSet {
	return &FontSet{
		tree: radix.New(),
	}
}

var fontKeyReplacer = strings.NewReplacer(" ", "", "-", "", "_", "")

// fontKey normalizes a family name so that "DejaVu Sans" and the file name
// derived "DejaVuSans" share a key.
func fontKey(family string) string {
	return strings.ToLower(fontKeyReplacer.Replace(family))
}

// Add adds font families to the set.
func (fonts *FontSet) Add(families ...string) {
	fonts.lock.Lock()
	defer fonts.lock.Unlock()

	for _, family := range families {
		key := fontKey(family)
		if key == "" {
			continue
		}
		if _, exists := fonts.tree.Get(key); exists {
			continue
		}
		fonts.tree.Insert(key, strings.TrimSpace(family))
	}
}

// Check returns whether the font family is available.
func (fonts *FontSet) Check(family string) bool {
	fonts.lock.RLock()
	defer fonts.lock.RUnlock()

	_, ok := fonts.tree.Get(fontKey(family))
	return ok
}

// Len returns the amount of known font families.
func (fonts *FontSet) Len() int {
	fonts.lock.RLock()
	defer fonts.lock.RUnlock()

	return fonts.tree.Len()
}

// Families returns all font families in lexical order.
func (fonts *FontSet) Families() []string {
	return fonts.WithPrefix("")
}

// WithPrefix returns all font families starting with prefix, in lexical order.
func (fonts *FontSet) WithPrefix(prefix string) []string {
	fonts.lock.RLock()
	defer fonts.lock.RUnlock()

	var families []string
	fonts.tree.WalkPrefix(fontKey(prefix), func(_ string, v interface{}) bool {
		families = append(families, v.(string))
		return false
	})
	return families
}

// Document gives access to document level capabilities.
type Document struct {
	fonts *FontSet
}

// NewDocument returns a Document with the given font families installed.
func NewDocument(families ...string) *Document {
	doc := &Document{
		fonts: newFontSet(),
	}
	doc.fonts.Add(families...)
	return doc
}

// Fonts returns the font families available to the document.
func (doc *Document) Fonts() *FontSet {
	return doc.fonts
}

// SystemDocument returns a Document with the font families found in the
// font directories of the operating system.
func SystemDocument() *Document {
	doc := NewDocument()
	for _, dir := range systemFontDirs() {
		doc.fonts.Add(scanFontDir(dir)...)
	}
	log.Debugf("host: found %d system font families", doc.fonts.Len())
	return doc
}

func systemFontDirs() []string {
	home, _ := os.UserHomeDir()

	switch runtime.GOOS {
	case "windows":
		return []string{filepath.Join(os.Getenv("WINDIR"), "Fonts")}
	case "darwin":
		return []string{
			"/System/Library/Fonts",
			"/Library/Fonts",
			filepath.Join(home, "Library", "Fonts"),
		}
	default:
		return []string{
			"/usr/share/fonts",
			"/usr/local/share/fonts",
			filepath.Join(home, ".fonts"),
			filepath.Join(home, ".local", "share", "fonts"),
		}
	}
}

var fontExtensions = map[string]struct{}{
	".ttf": {},
	".otf": {},
	".ttc": {},
}

// scanFontDir derives font families from font file names, eg.
// "DejaVuSans-Bold.ttf" becomes "DejaVuSans".
func scanFontDir(dir string) []string {
	var families []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// skip unreadable or missing directories
			return filepath.SkipDir
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := fontExtensions[ext]; !ok {
			return nil
		}
		family := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		if idx := strings.IndexByte(family, '-'); idx > 0 {
			family = family[:idx]
		}
		families = append(families, family)
		return nil
	})
	return families
}
