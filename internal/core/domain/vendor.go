package domain

import (
	"context"
	"time"
)

// Vendor application statuses, driven by the server.
const (
	ApplicationSubmitted   = "submitted"
	ApplicationUnderReview = "under_review"
	ApplicationApproved    = "approved"
	ApplicationRejected    = "rejected"
)

// MaxDocumentSize caps each attached document (8 MiB).
const MaxDocumentSize int64 = 8 * 1024 * 1024

// ApplicationCountry is sent with every vendor application.
const ApplicationCountry = "NG"

// MaxBusinessTypeLength bounds the comma-joined category list sent as business_type.
const MaxBusinessTypeLength = 50

// FileRef points at a file picked on the device. It is not opened until submission.
type FileRef struct {
	URI      string `json:"uri"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType,omitempty"`
}

// VendorApplicationDraft accumulates the three wizard steps.
// The validate tags describe completeness; they are checked right before submission.
// notblank rejects whitespace-only text the same way the step gates do.
type VendorApplicationDraft struct {
	// Step 1
	FullName    string `json:"fullName"`
	Gender      string `json:"gender"`
	Email       string `json:"email" validate:"required,notblank"`
	CountryCode string `json:"countryCode"`
	Phone       string `json:"phone" validate:"required,notblank"`
	Address     string `json:"address" validate:"required,notblank"`

	// Step 2
	BusinessName string   `json:"businessName" validate:"required,notblank,max=100"`
	Categories   []string `json:"categories" validate:"required,min=1,dive,required"`

	// Step 3
	City                string   `json:"city" validate:"required,notblank"`
	State               string   `json:"state" validate:"required,notblank"`
	BusinessDescription string   `json:"businessDescription" validate:"required,notblank"`
	ProductDescription  string   `json:"productDescription" validate:"required,notblank"`
	ExpectedSales       string   `json:"expectedSales" validate:"required,notblank"`
	BusinessRegNumber   string   `json:"businessRegNumber" validate:"required,notblank"`
	IDDocument          *FileRef `json:"idDocument,omitempty" validate:"required"`
	BusinessCertificate *FileRef `json:"businessCertificate,omitempty" validate:"required"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// HasCategory reports whether key is selected.
func (d *VendorApplicationDraft) HasCategory(key string) bool {
	for _, c := range d.Categories {
		if c == key {
			return true
		}
	}
	return false
}

// VendorApplicationRecord is the server's answer to a submission.
type VendorApplicationRecord struct {
	ID     string `json:"id" bson:"_id"`
	Status string `json:"status" bson:"status"`
}

// VerificationDocument is an uploaded application document, stored server side.
type VerificationDocument struct {
	FileName    string    `json:"fileName" bson:"fileName"`
	FileURL     string    `json:"fileUrl" bson:"fileUrl"`
	FileSize    int64     `json:"fileSize" bson:"fileSize"`
	ContentType string    `json:"contentType" bson:"contentType"`
	UploadedAt  time.Time `json:"uploadedAt" bson:"uploadedAt"`
}

// VendorApplication is the stored application on the stub API side.
type VendorApplication struct {
	ID                   string                `json:"id" bson:"_id"`
	UserID               string                `json:"userId" bson:"userID"`
	BusinessName         string                `json:"businessName" bson:"businessName"`
	BusinessType         string                `json:"businessType" bson:"businessType"`
	BusinessEmail        string                `json:"businessEmail" bson:"businessEmail"`
	BusinessPhone        string                `json:"businessPhone" bson:"businessPhone"`
	Address              string                `json:"address" bson:"address"`
	City                 string                `json:"city" bson:"city"`
	State                string                `json:"state" bson:"state"`
	Country              string                `json:"country" bson:"country"`
	Description          string                `json:"description" bson:"description"`
	ProductsDescription  string                `json:"productsDescription" bson:"productsDescription"`
	ExpectedMonthlySales string                `json:"expectedMonthlySales" bson:"expectedMonthlySales"`
	RegistrationNumber   string                `json:"registrationNumber,omitempty" bson:"registrationNumber,omitempty"`
	IdentityDocument     *VerificationDocument `json:"identityDocument" bson:"identityDocument"`
	BusinessCertificate  *VerificationDocument `json:"businessCertificate" bson:"businessCertificate"`
	Status               string                `json:"status" bson:"status"`
	CreatedAt            time.Time             `json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time             `json:"updatedAt" bson:"updatedAt"`
}

// IsActive reports whether the application blocks a new submission.
func (a *VendorApplication) IsActive() bool {
	switch a.Status {
	case ApplicationSubmitted, ApplicationUnderReview, ApplicationApproved:
		return true
	}
	return false
}

// ApplicationRepository stores vendor applications.
type ApplicationRepository interface {
	Create(ctx context.Context, app *VendorApplication) error
	// GetByUserID returns the most recent application for the user, or nil if none.
	GetByUserID(ctx context.Context, userID string) (*VendorApplication, error)
}

// Category is a product category as served by the categories API.
type Category struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name" validate:"required"`
	Slug         string    `json:"slug" bson:"slug"`
	FullPath     string    `json:"full_path" bson:"fullPath"`
	ProductCount int       `json:"product_count" bson:"productCount"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// CategoryRepository lists product categories.
type CategoryRepository interface {
	List(ctx context.Context, limit int) ([]Category, error)
}
