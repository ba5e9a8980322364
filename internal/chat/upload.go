package chat

import (
	"mime"
	"path/filepath"
)

// AdmissibleContentType is the single document type the ingestion
// service accepts.
const AdmissibleContentType = "application/pdf"

// FileDescriptor is a candidate upload: a local path plus the content
// type declared for it.
type FileDescriptor struct {
	Path        string
	Name        string
	ContentType string
}

// DescribeFile builds a descriptor for a local path, declaring the
// content type from the filename extension.
func DescribeFile(path string) FileDescriptor {
	ct := mime.TypeByExtension(filepath.Ext(path))
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	return FileDescriptor{
		Path:        path,
		Name:        filepath.Base(path),
		ContentType: ct,
	}
}

// ClassifyUploads partitions a batch by declared content type into the
// admissible set (submitted to the service) and the inadmissible rest
// (reported back by name, never submitted). Relative order is kept in
// both halves.
func ClassifyUploads(files []FileDescriptor) (admissible, inadmissible []FileDescriptor) {
	for _, f := range files {
		if f.ContentType == AdmissibleContentType {
			admissible = append(admissible, f)
		} else {
			inadmissible = append(inadmissible, f)
		}
	}
	return admissible, inadmissible
}
