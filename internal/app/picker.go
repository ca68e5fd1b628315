package app

import (
	"context"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"github.com/developia-II/vendora-onboarding/internal/vendorsetup"
)

// PathPicker answers picks with fixed local paths. An empty path behaves
// like a cancelled pick.
type PathPicker struct {
	Image    string
	Document string
}

var _ vendorsetup.FilePicker = PathPicker{}

func (p PathPicker) PickImage(ctx context.Context) (*domain.FileRef, error) {
	return pick(p.Image)
}

func (p PathPicker) PickDocument(ctx context.Context) (*domain.FileRef, error) {
	return pick(p.Document)
}

func pick(path string) (*domain.FileRef, error) {
	if path == "" {
		return nil, nil
	}
	return vendorsetup.LocalFileRef(path)
}
