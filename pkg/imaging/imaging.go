package imaging

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	// Register decoders for every supported format so DecodeConfig and
	// Decode can read headers regardless of which API is used first.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// supportedExtensions are the file types the scoring pipeline accepts
var supportedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".bmp":  {},
	".webp": {},
}

// IsSupported reports whether the path has a scoreable image extension.
// The check is case-insensitive.
func IsSupported(path string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// FindImages recursively collects image files under root and returns
// them sorted. Hidden directories are not descended into; sidecar and
// checkpoint files hide there and cache directories are never worth
// scoring. A missing or unreadable root yields an empty list rather
// than an error, since an empty batch is handled downstream anyway.
func FindImages(root string) []string {
	var images []string

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, the rest of the tree
			// still gets scanned.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsSupported(d.Name()) {
			images = append(images, path)
		}
		return nil
	})

	sort.Strings(images)
	return images
}
