package fs

import (
	iofs "io/fs"
	"os"
	"path/filepath"

	"codeqa/internal/domain"
)

type Walker struct {
	filter *Filter
}

func NewWalker(filter *Filter) *Walker {
	return &Walker{filter: filter}
}

// Walk loads every accepted file under root in lexical order.
func (w *Walker) Walk(root string) ([]domain.File, error) {
	var files []domain.File

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(root, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && w.filter.SkipDir(relPath) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !w.filter.Accept(relPath) {
			return nil
		}

		if limit := w.filter.MaxFileBytes(); limit > 0 {
			if info, err := d.Info(); err == nil && info.Size() > limit {
				return nil
			}
		}

		raw, err := os.ReadFile(p)
		if err != nil {
			return nil // unreadable files are skipped, not fatal
		}
		if text, ok := w.filter.Decode(raw); ok {
			files = append(files, domain.File{Path: relPath, Text: text})
		}
		return nil
	})

	return files, err
}
