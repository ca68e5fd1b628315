package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"github.com/developia-II/vendora-onboarding/internal/middleware"
	"github.com/developia-II/vendora-onboarding/internal/services/vendor"
	"github.com/developia-II/vendora-onboarding/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// Room for both documents plus the text fields.
const maxApplicationBody = 2*domain.MaxDocumentSize + 1<<20

var allowedDocumentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

type VendorApplicationHandler struct {
	vendors vendor.Service
}

func NewVendorApplicationHandler(vendors vendor.Service) *VendorApplicationHandler {
	return &VendorApplicationHandler{vendors: vendors}
}

// Submit handles POST /vendor/applications.
func (h *VendorApplicationHandler) Submit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxApplicationBody)
	if err := c.Request.ParseMultipartForm(1 << 20); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid multipart form or request too large"))
		return
	}

	var in vendor.Application
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid form fields"))
		return
	}

	identity, closeID, err := readDocument(c.Request.MultipartForm, "identity_document")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse(err.Error()))
		return
	}
	defer closeID()
	certificate, closeCert, err := readDocument(c.Request.MultipartForm, "business_certificate")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse(err.Error()))
		return
	}
	defer closeCert()

	app, err := h.vendors.Submit(c.Request.Context(), c.GetString(middleware.CtxUserID), in, identity, certificate)
	if err != nil {
		var verrs validator.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Validation failed: "+err.Error()))
		case errors.Is(err, vendor.ErrActiveApplication):
			c.JSON(http.StatusConflict, utils.ErrorResponse(err.Error()))
		default:
			logrus.WithError(err).Error("vendor application failed")
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to submit application"))
		}
		return
	}

	c.JSON(http.StatusCreated, utils.SuccessResponse("Application submitted", domain.VendorApplicationRecord{
		ID:     app.ID,
		Status: app.Status,
	}))
}

// Current handles GET /vendor/applications.
func (h *VendorApplicationHandler) Current(c *gin.Context) {
	app, err := h.vendors.Current(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("No vendor application found"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to fetch application"))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Application fetched", app))
}

// readDocument opens a file part, enforces the size cap and sniffs its
// content type from the first 512 bytes.
func readDocument(form *multipart.Form, field string) (vendor.Document, func(), error) {
	noop := func() {}
	if form == nil || len(form.File[field]) == 0 {
		return vendor.Document{}, noop, fmt.Errorf("%s is required", field)
	}
	header := form.File[field][0]
	if header.Size > domain.MaxDocumentSize {
		return vendor.Document{}, noop, fmt.Errorf("%s exceeds the %d MB limit", field, domain.MaxDocumentSize>>20)
	}

	file, err := header.Open()
	if err != nil {
		return vendor.Document{}, noop, fmt.Errorf("could not read %s", field)
	}
	buffer := make([]byte, 512)
	n, err := io.ReadFull(file, buffer)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		file.Close()
		return vendor.Document{}, noop, fmt.Errorf("could not read %s", field)
	}
	contentType := http.DetectContentType(buffer[:n])
	if !allowedDocumentTypes[contentType] {
		file.Close()
		return vendor.Document{}, noop, fmt.Errorf("%s must be a JPG, PNG or PDF file", field)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return vendor.Document{}, noop, fmt.Errorf("could not read %s", field)
	}

	return vendor.Document{
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Content:     file,
	}, func() { file.Close() }, nil
}
