package trace

import (
	"context"
	"io/fs"
	"log"
	"path/filepath"
	"sort"
	"strings"
)

const maxDiscoverDepth = 5

// Discover returns the trace files (*.yaml, *.yml) under root in lexical order.
// Hidden directories are skipped, as is anything deeper than five levels. A root
// that is a file is returned as is.
func Discover(ctx context.Context, root string) ([]string, error) {
	var found []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			log.Printf("Error walking path %s: %v", path, err)
			return nil
		}

		if !d.IsDir() {
			if path == root || isTraceFile(d.Name()) {
				found = append(found, path)
			}
			return nil
		}

		if path == root {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		if strings.Count(rel, string(filepath.Separator)) >= maxDiscoverDepth {
			return fs.SkipDir
		}
		if strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(found)
	return found, nil
}

func isTraceFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
