// Package files derives collision-free local filenames for downloaded
// attachments. Existing files are never overwritten; a rerun over the same
// date range yields numbered siblings instead.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolve returns a name under dir that does not collide with an existing
// file. On collision it appends _1, _2, ... before the extension until a
// free name is found. The result depends only on the current directory
// contents.
func Resolve(dir, desired string) string {
	base, ext := splitExt(desired)

	name := desired
	for counter := 1; exists(filepath.Join(dir, name)); counter++ {
		name = fmt.Sprintf("%s_%d%s", base, counter, ext)
	}
	return name
}

func splitExt(name string) (string, string) {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i], name[i:]
	}
	return name, ""
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
