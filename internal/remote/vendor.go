package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
)

// Multipart field names of POST /vendor/applications.
const (
	FieldBusinessName        = "business_name"
	FieldBusinessType        = "business_type"
	FieldBusinessEmail       = "business_email"
	FieldBusinessPhone       = "business_phone"
	FieldAddress             = "address"
	FieldCity                = "city"
	FieldState               = "state"
	FieldCountry             = "country"
	FieldDescription         = "description"
	FieldProductsDescription = "products_description"
	FieldExpectedSales       = "expected_monthly_sales"
	FieldRegistrationNumber  = "business_registration_number"
	FieldIdentityDocument    = "identity_document"
	FieldBusinessCertificate = "business_certificate"
)

// Document is a file part. Open is called once per encoding.
type Document struct {
	FileName    string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// VendorApplication is the multipart payload of a vendor application.
type VendorApplication struct {
	BusinessName         string
	BusinessType         string
	BusinessEmail        string
	BusinessPhone        string
	Address              string
	City                 string
	State                string
	Country              string
	Description          string
	ProductsDescription  string
	ExpectedMonthlySales string
	RegistrationNumber   string
	IdentityDocument     Document
	BusinessCertificate  Document
}

func (a VendorApplication) fields() [][2]string {
	return [][2]string{
		{FieldBusinessName, a.BusinessName},
		{FieldBusinessType, a.BusinessType},
		{FieldBusinessEmail, a.BusinessEmail},
		{FieldBusinessPhone, a.BusinessPhone},
		{FieldAddress, a.Address},
		{FieldCity, a.City},
		{FieldState, a.State},
		{FieldCountry, a.Country},
		{FieldDescription, a.Description},
		{FieldProductsDescription, a.ProductsDescription},
		{FieldExpectedSales, a.ExpectedMonthlySales},
		{FieldRegistrationNumber, a.RegistrationNumber},
	}
}

// Encode writes the multipart body and returns it with its content type.
func (a VendorApplication) Encode() (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, f := range a.fields() {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := writeDocument(w, FieldIdentityDocument, a.IdentityDocument); err != nil {
		return nil, "", err
	}
	if err := writeDocument(w, FieldBusinessCertificate, a.BusinessCertificate); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeDocument(w *multipart.Writer, field string, doc Document) error {
	if doc.Open == nil {
		return fmt.Errorf("remote: %s has no content", field)
	}
	src, err := doc.Open()
	if err != nil {
		return fmt.Errorf("remote: open %s: %w", field, err)
	}
	defer src.Close()

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(doc.FileName)))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, src)
	return err
}

type applicationResponse struct {
	Success *bool                          `json:"success"`
	Message string                         `json:"message"`
	Data    domain.VendorApplicationRecord `json:"data"`
}

// SubmitVendorApplication posts app as multipart form data.
func (c *Client) SubmitVendorApplication(ctx context.Context, token string, app VendorApplication) (domain.VendorApplicationRecord, error) {
	body, contentType, err := app.Encode()
	if err != nil {
		return domain.VendorApplicationRecord{}, err
	}
	var out applicationResponse
	if err := c.do(ctx, http.MethodPost, PathVendorApplications, token, body, contentType, &out); err != nil {
		return domain.VendorApplicationRecord{}, err
	}
	if err := unsuccessful(http.StatusOK, out.Success, out.Message); err != nil {
		return domain.VendorApplicationRecord{}, err
	}
	if out.Data.ID == "" {
		return domain.VendorApplicationRecord{}, fmt.Errorf("%w: application id missing from response", domain.ErrRemote)
	}
	return out.Data, nil
}

// ListCategories fetches product categories. token may be empty.
func (c *Client) ListCategories(ctx context.Context, token string) ([]domain.Category, error) {
	var out struct {
		Success *bool             `json:"success"`
		Message string            `json:"message"`
		Data    []domain.Category `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, PathCategories, token, nil, "", &out); err != nil {
		return nil, err
	}
	if err := unsuccessful(http.StatusOK, out.Success, out.Message); err != nil {
		return nil, err
	}
	return out.Data, nil
}
