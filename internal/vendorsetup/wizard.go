// Package vendorsetup implements the three step vendor application wizard:
// identity, business classification and documents, then a single multipart
// submission.
package vendorsetup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"github.com/developia-II/vendora-onboarding/internal/navigation"
	"github.com/developia-II/vendora-onboarding/internal/phone"
	"github.com/developia-II/vendora-onboarding/internal/remote"
	"github.com/developia-II/vendora-onboarding/internal/session"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/sirupsen/logrus"
)

type Step int

const (
	StepIdentity Step = iota + 1
	StepBusiness
	StepDocuments
)

func (s Step) Route() navigation.Route {
	switch s {
	case StepBusiness:
		return navigation.RouteVendorSetupBusiness
	case StepDocuments:
		return navigation.RouteVendorSetupDocuments
	}
	return navigation.RouteVendorSetupIdentity
}

// Field is an editable text field of the draft.
type Field int

const (
	FieldFullName Field = iota
	FieldGender
	FieldCountryCode
	FieldPhone
	FieldAddress
	FieldBusinessName
	FieldCity
	FieldState
	FieldBusinessDescription
	FieldProductDescription
	FieldExpectedSales
	FieldRegistrationNumber
)

var fieldNames = map[Field]string{
	FieldFullName:            "fullName",
	FieldGender:              "gender",
	FieldCountryCode:         "countryCode",
	FieldPhone:               "phone",
	FieldAddress:             "address",
	FieldBusinessName:        "businessName",
	FieldCity:                "city",
	FieldState:               "state",
	FieldBusinessDescription: "businessDescription",
	FieldProductDescription:  "productDescription",
	FieldExpectedSales:       "expectedSales",
	FieldRegistrationNumber:  "businessRegNumber",
}

func (f Field) String() string {
	if n, ok := fieldNames[f]; ok {
		return n
	}
	return fmt.Sprintf("field(%d)", int(f))
}

const (
	GenderMale   = "male"
	GenderFemale = "female"

	MaxBusinessNameLength = 100
)

// SubmitAPI is the subset of the remote client used for submission.
type SubmitAPI interface {
	SubmitVendorApplication(ctx context.Context, token string, app remote.VendorApplication) (domain.VendorApplicationRecord, error)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Wizard holds the shared draft for all three screens. Every change is
// written through to the draft repository before it returns.
type Wizard struct {
	repo     DraftRepository
	sessions *session.Manager
	api      SubmitAPI
	cache    *ApplicationCache
	picker   FilePicker
	files    FileOpener
	nav      navigation.Navigator
	notify   navigation.Notifier
	log      *logrus.Entry

	now func() time.Time

	mu         sync.Mutex
	draft      domain.VendorApplicationDraft
	submitting bool
}

type Deps struct {
	Drafts   DraftRepository
	Sessions *session.Manager
	API      SubmitAPI
	Cache    *ApplicationCache
	Picker   FilePicker
	Files    FileOpener
	Nav      navigation.Navigator
	Notify   navigation.Notifier
}

func NewWizard(d Deps) *Wizard {
	files := d.Files
	if files == nil {
		files = LocalFiles{}
	}
	return &Wizard{
		repo:     d.Drafts,
		sessions: d.Sessions,
		api:      d.API,
		cache:    d.Cache,
		picker:   d.Picker,
		files:    files,
		nav:      d.Nav,
		notify:   d.Notify,
		log:      logrus.WithField("component", "vendorsetup"),
		now:      time.Now,
	}
}

// Load restores the saved draft. An empty email is prefilled from the session.
func (w *Wizard) Load(ctx context.Context) error {
	d, err := w.repo.Load(ctx)
	if err != nil {
		return err
	}
	if d.Email == "" {
		d.Email = w.sessions.Email(ctx)
	}
	w.mu.Lock()
	w.draft = *d
	w.mu.Unlock()
	return nil
}

// Draft returns a copy of the current draft.
func (w *Wizard) Draft() domain.VendorApplicationDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return copyDraft(w.draft)
}

func copyDraft(d domain.VendorApplicationDraft) domain.VendorApplicationDraft {
	d.Categories = append([]string(nil), d.Categories...)
	if d.IDDocument != nil {
		ref := *d.IDDocument
		d.IDDocument = &ref
	}
	if d.BusinessCertificate != nil {
		ref := *d.BusinessCertificate
		d.BusinessCertificate = &ref
	}
	return d
}

// update applies fn to a copy of the draft and persists it. The in-memory
// draft only changes once the save succeeded.
func (w *Wizard) update(ctx context.Context, fn func(d *domain.VendorApplicationDraft) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	next := copyDraft(w.draft)
	if err := fn(&next); err != nil {
		return err
	}
	next.UpdatedAt = w.now().UTC()
	if err := w.repo.Save(ctx, &next); err != nil {
		return err
	}
	w.draft = next
	return nil
}

// SetField writes one text field.
func (w *Wizard) SetField(ctx context.Context, f Field, value string) error {
	return w.update(ctx, func(d *domain.VendorApplicationDraft) error {
		switch f {
		case FieldFullName:
			d.FullName = value
		case FieldGender:
			g := strings.ToLower(strings.TrimSpace(value))
			if g != GenderMale && g != GenderFemale {
				return domain.NewValidationError(f.String(), "must be male or female")
			}
			d.Gender = g
		case FieldCountryCode:
			d.CountryCode = strings.TrimSpace(value)
			if d.Phone != "" {
				d.Phone = formatPhone(d.Phone, d.CountryCode)
			}
		case FieldPhone:
			d.Phone = formatPhone(value, d.CountryCode)
		case FieldAddress:
			d.Address = value
		case FieldBusinessName:
			if utf8.RuneCountInString(value) > MaxBusinessNameLength {
				return domain.NewValidationError(f.String(), fmt.Sprintf("must be at most %d characters", MaxBusinessNameLength))
			}
			d.BusinessName = value
		case FieldCity:
			d.City = value
		case FieldState:
			d.State = value
		case FieldBusinessDescription:
			d.BusinessDescription = value
		case FieldProductDescription:
			d.ProductDescription = value
		case FieldExpectedSales:
			d.ExpectedSales = value
		case FieldRegistrationNumber:
			d.BusinessRegNumber = value
		default:
			return domain.NewValidationError(f.String(), "unknown field")
		}
		return nil
	})
}

// SetEmail fills the email once. After that it is read-only and only
// ChangeEmail may replace it.
func (w *Wizard) SetEmail(ctx context.Context, email string) error {
	return w.update(ctx, func(d *domain.VendorApplicationDraft) error {
		if d.Email != "" {
			return domain.NewValidationError("email", "email is read-only, use change email")
		}
		return setEmail(d, email)
	})
}

// ChangeEmail is the explicit sub-flow for replacing a locked email.
func (w *Wizard) ChangeEmail(ctx context.Context, email string) error {
	return w.update(ctx, func(d *domain.VendorApplicationDraft) error {
		return setEmail(d, email)
	})
}

func setEmail(d *domain.VendorApplicationDraft, email string) error {
	email = strings.TrimSpace(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return domain.NewValidationError("email", "must be a valid email address")
	}
	d.Email = strings.ToLower(email)
	return nil
}

// formatPhone pretty-prints value only when it is a valid number.
func formatPhone(value, countryCode string) string {
	if res := phone.Validate(value, countryCode); res.Valid && res.Formatted != "" {
		return res.Formatted
	}
	return value
}

// internationalPhone drops the national trunk prefix and prepends the calling code.
func internationalPhone(value, countryCode string) string {
	digits := phone.Digits(value)
	if countryCode == "" {
		return digits
	}
	return countryCode + strings.TrimPrefix(digits, "0")
}

// ValidatePhone runs the phone validator against the current country code.
func (w *Wizard) ValidatePhone() phone.Result {
	d := w.Draft()
	return phone.Validate(d.Phone, d.CountryCode)
}

// ToggleCategory selects or deselects key.
func (w *Wizard) ToggleCategory(ctx context.Context, key string) error {
	if !IsCategory(key) {
		return domain.NewValidationError("categories", fmt.Sprintf("unknown category %q", key))
	}
	return w.update(ctx, func(d *domain.VendorApplicationDraft) error {
		if !d.HasCategory(key) {
			d.Categories = append(d.Categories, key)
			return nil
		}
		d.Categories = slices.DeleteFunc(d.Categories, func(c string) bool { return c == key })
		return nil
	})
}

// Attach stores ref in slot after the size check. An oversized file leaves
// the slot untouched.
func (w *Wizard) Attach(ctx context.Context, slot DocumentSlot, ref domain.FileRef) error {
	if err := checkSize(&ref); err != nil {
		w.notify.Alert(navigation.Alert{Severity: navigation.SeverityError, Title: "File too large", Message: err.Error()})
		return err
	}
	ref.MimeType = contentType(ref.Name, ref.MimeType)
	return w.update(ctx, func(d *domain.VendorApplicationDraft) error {
		if slot == SlotBusinessCertificate {
			d.BusinessCertificate = &ref
		} else {
			d.IDDocument = &ref
		}
		return nil
	})
}

// Pick opens the chosen picker and attaches the result. A cancelled pick is not an error.
func (w *Wizard) Pick(ctx context.Context, slot DocumentSlot, src PickSource) error {
	if w.picker == nil {
		return errors.New("no file picker configured")
	}
	var (
		ref *domain.FileRef
		err error
	)
	if src == SourceGallery {
		ref, err = w.picker.PickImage(ctx)
	} else {
		ref, err = w.picker.PickDocument(ctx)
	}
	if err != nil {
		w.notify.Alert(navigation.Alert{Severity: navigation.SeverityError, Title: "Could not pick file", Message: err.Error()})
		return err
	}
	if ref == nil {
		return nil
	}
	return w.Attach(ctx, slot, *ref)
}

// CanAdvance reports whether step's action control is enabled.
func (w *Wizard) CanAdvance(step Step) bool {
	d := w.Draft()
	switch step {
	case StepIdentity:
		return filled(d.FullName, d.Gender, d.Email, d.Phone, d.Address)
	case StepBusiness:
		return filled(d.BusinessName) && len(d.Categories) > 0
	case StepDocuments:
		return filled(d.BusinessDescription, d.ProductDescription, d.ExpectedSales,
			d.Address, d.City, d.State, d.BusinessRegNumber) &&
			d.IDDocument != nil && d.BusinessCertificate != nil
	}
	return false
}

func filled(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// Next moves from step 1 or 2 to the following screen.
func (w *Wizard) Next(step Step) error {
	if step >= StepDocuments {
		return fmt.Errorf("step %d has no next screen", step)
	}
	if !w.CanAdvance(step) {
		err := domain.NewValidationError("", "complete all fields to continue")
		w.notify.Alert(navigation.Alert{Severity: navigation.SeverityError, Title: "Incomplete step", Message: err.Error()})
		return err
	}
	w.nav.Navigate((step + 1).Route(), nil)
	return nil
}

// Submit sends the completed draft. On 401 it recovers the session once and
// retries once; a second failure logs the user out.
func (w *Wizard) Submit(ctx context.Context) error {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return domain.ErrBusy
	}
	w.submitting = true
	draft := copyDraft(w.draft)
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
	}()

	if err := checkComplete(&draft); err != nil {
		w.notify.Alert(navigation.Alert{Severity: navigation.SeverityError, Title: "Incomplete application", Message: err.Error()})
		return err
	}

	token, ok, err := w.sessions.AccessToken(ctx)
	if err != nil || !ok {
		return w.forceLogin(ctx, domain.ErrSessionLost)
	}

	app := w.buildApplication(&draft)
	rec, err := w.api.SubmitVendorApplication(ctx, token, app)
	if errors.Is(err, domain.ErrSessionExpired) {
		w.log.Info("submission unauthorized, recovering session")
		fresh, rerr := w.sessions.Recover(ctx, token)
		if rerr != nil {
			return w.forceLogin(ctx, rerr)
		}
		rec, err = w.api.SubmitVendorApplication(ctx, fresh, app)
		if errors.Is(err, domain.ErrSessionExpired) {
			return w.forceLogin(ctx, err)
		}
	}
	if err != nil {
		w.log.WithError(err).Warn("vendor application submission failed")
		w.notify.Alert(navigation.Alert{
			Severity: navigation.SeverityError,
			Title:    "Submission failed",
			Message:  domain.UserMessage(err, "Could not submit your application. Please try again."),
		})
		return err
	}

	owner := w.sessions.Email(ctx)
	if owner == "" {
		owner = draft.Email
	}
	if err := w.cache.Save(ctx, owner, rec); err != nil {
		w.log.WithError(err).Warn("could not cache application")
	}
	if err := w.repo.Clear(ctx); err != nil {
		w.log.WithError(err).Warn("could not clear draft")
	}
	w.mu.Lock()
	w.draft = domain.VendorApplicationDraft{}
	w.mu.Unlock()

	w.log.WithFields(logrus.Fields{"application_id": rec.ID, "status": rec.Status}).Info("vendor application submitted")
	w.nav.Navigate(navigation.RouteApplicationSubmitted, navigation.Params{"id": rec.ID, "status": rec.Status})
	return nil
}

func (w *Wizard) forceLogin(ctx context.Context, cause error) error {
	if err := w.sessions.Logout(ctx); err != nil {
		w.log.WithError(err).Warn("logout failed")
	}
	w.notify.Alert(navigation.Alert{
		Severity: navigation.SeverityError,
		Title:    "Session expired",
		Message:  "Please sign in again to submit your application.",
		Actions:  []navigation.Action{navigation.ReLogin},
	})
	w.nav.Navigate(navigation.RouteLogin, nil)
	if errors.Is(cause, domain.ErrSessionLost) || errors.Is(cause, domain.ErrSessionExpired) {
		return cause
	}
	return fmt.Errorf("%w: %w", domain.ErrSessionExpired, cause)
}

func checkComplete(d *domain.VendorApplicationDraft) error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	reason := "is required"
	if fe.Tag() == "max" {
		reason = fmt.Sprintf("must be at most %s characters", fe.Param())
	} else if fe.Tag() == "min" {
		reason = "select at least one"
	}
	return domain.NewValidationError(fe.Field(), reason)
}

func (w *Wizard) buildApplication(d *domain.VendorApplicationDraft) remote.VendorApplication {
	return remote.VendorApplication{
		BusinessName:         d.BusinessName,
		BusinessType:         BusinessType(d.Categories, domain.MaxBusinessTypeLength),
		BusinessEmail:        d.Email,
		BusinessPhone:        internationalPhone(d.Phone, d.CountryCode),
		Address:              d.Address,
		City:                 d.City,
		State:                d.State,
		Country:              domain.ApplicationCountry,
		Description:          d.BusinessDescription,
		ProductsDescription:  d.ProductDescription,
		ExpectedMonthlySales: d.ExpectedSales,
		RegistrationNumber:   d.BusinessRegNumber,
		IdentityDocument:     w.document(*d.IDDocument),
		BusinessCertificate:  w.document(*d.BusinessCertificate),
	}
}

func (w *Wizard) document(ref domain.FileRef) remote.Document {
	return remote.Document{
		FileName:    ref.Name,
		ContentType: contentType(ref.Name, ref.MimeType),
		Open:        func() (io.ReadCloser, error) { return w.files.Open(ref) },
	}
}
