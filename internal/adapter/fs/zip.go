package fs

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	iofs "io/fs"
	"strings"

	"codeqa/internal/domain"
)

// minZipSize is the size of an empty archive's end-of-central-directory record.
const minZipSize = 22

// LoadZip extracts accepted files from an in-memory ZIP archive, in archive
// order. Entries that cannot be read are skipped.
func LoadZip(data []byte, filter *Filter) ([]domain.File, error) {
	if len(data) < minZipSize {
		return nil, domain.Invalidf("Upload is empty or not a valid ZIP file")
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !(errors.Is(err, zip.ErrInsecurePath) && zr != nil) {
		return nil, domain.Invalidf("Invalid or corrupted ZIP file")
	}

	var files []domain.File
	for _, entry := range zr.File {
		name := entry.Name
		if strings.HasSuffix(name, "/") || entry.FileInfo().IsDir() {
			continue
		}
		if strings.Contains(name, "__MACOSX") || strings.Contains(name, ".git/") {
			continue
		}

		rel := cleanEntryName(name)
		if !iofs.ValidPath(rel) || !filter.Accept(rel) {
			continue
		}
		if limit := filter.MaxFileBytes(); limit > 0 && entry.UncompressedSize64 > uint64(limit) {
			continue
		}

		raw, err := readEntry(entry, filter.MaxFileBytes())
		if err != nil {
			continue
		}
		if text, ok := filter.Decode(raw); ok {
			files = append(files, domain.File{Path: rel, Text: text})
		}
	}

	if len(files) == 0 {
		return nil, domain.Invalidf("ZIP contains no indexable code files")
	}
	return files, nil
}

func cleanEntryName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	for strings.HasPrefix(name, "./") {
		name = strings.TrimPrefix(name, "./")
	}
	return strings.TrimLeft(name, "/")
}

// readEntry reads at most limit+1 bytes so a lying size header cannot blow
// up memory; Decode then rejects the oversized result.
func readEntry(entry *zip.File, limit int64) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit+1)
	}
	return io.ReadAll(r)
}
