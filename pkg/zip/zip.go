// Package zip builds in-memory zip archives for artifact downloads.
package zip

import (
	"archive/zip"
	"bytes"
	"time"
)

// Entry is one file inside an archive.
type Entry struct {
	Name string
	Data []byte
}

// Archive packs the entries into a deflate-compressed zip and returns its
// bytes. Entries that fail to open are skipped so one bad name cannot sink
// the whole download.
func Archive(entries []Entry) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	now := time.Now()
	for _, entry := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     entry.Name,
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			continue
		}
		if _, err := w.Write(entry.Data); err != nil {
			return nil
		}
	}
	if err := zw.Close(); err != nil {
		return nil
	}
	return buf.Bytes()
}
