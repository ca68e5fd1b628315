package vendorsetup

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
)

// DocumentSlot names one of the two required attachments.
type DocumentSlot int

const (
	SlotIdentityDocument DocumentSlot = iota
	SlotBusinessCertificate
)

func (s DocumentSlot) String() string {
	if s == SlotBusinessCertificate {
		return "business_certificate"
	}
	return "identity_document"
}

// PickSource selects the device picker.
type PickSource int

const (
	SourceGallery PickSource = iota
	SourceDocuments
)

// FilePicker asks the device for a file. A cancelled pick returns nil, nil.
type FilePicker interface {
	PickImage(ctx context.Context) (*domain.FileRef, error)
	PickDocument(ctx context.Context) (*domain.FileRef, error)
}

// FileOpener opens a picked file for upload.
type FileOpener interface {
	Open(ref domain.FileRef) (io.ReadCloser, error)
}

// LocalFiles opens refs whose URI is a local path or file:// URL.
type LocalFiles struct{}

func (LocalFiles) Open(ref domain.FileRef) (io.ReadCloser, error) {
	return os.Open(localPath(ref.URI))
}

func localPath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		if u, err := url.Parse(uri); err == nil {
			return u.Path
		}
	}
	return uri
}

// LocalFileRef stats path and describes it as a picked file.
func LocalFileRef(path string) (*domain.FileRef, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &domain.FileRef{
		URI:      path,
		Name:     fi.Name(),
		Size:     fi.Size(),
		MimeType: contentType(fi.Name(), ""),
	}, nil
}

func contentType(name, declared string) string {
	if declared != "" {
		return declared
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// checkSize rejects files above the document cap before they reach the draft.
func checkSize(ref *domain.FileRef) error {
	if ref.Size > domain.MaxDocumentSize {
		return fmt.Errorf("%w: %s is %.1f MB, the limit is %d MB",
			domain.ErrFileTooLarge, ref.Name, float64(ref.Size)/(1024*1024), domain.MaxDocumentSize/(1024*1024))
	}
	return nil
}
