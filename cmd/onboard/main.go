// Command onboard drives the Vendora onboarding flows from a terminal:
// registration, email verification and the vendor setup wizard.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/developia-II/vendora-onboarding/internal/app"
	"github.com/developia-II/vendora-onboarding/internal/config"
	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"github.com/developia-II/vendora-onboarding/internal/logging"
	"github.com/developia-II/vendora-onboarding/internal/otp"
	"github.com/developia-II/vendora-onboarding/internal/registration"
	"github.com/developia-II/vendora-onboarding/internal/vendorsetup"
	"github.com/sirupsen/logrus"
)

const usage = `usage: onboard <command> [flags]

commands:
  register    create an account and open the email verification
  login       sign in with an existing account
  verify      enter the emailed code
  resend      request a new code
  apply       fill the vendor application from a JSON file and submit it
  categories  list product categories
  status      show the stored session and application
  logout      forget the stored tokens`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, nil, nil)
	if err != nil {
		logrus.Fatalf("start: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			logrus.WithError(err).Warn("close session backend")
		}
	}()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "register":
		err = runRegister(ctx, a, args)
	case "login":
		err = runLogin(ctx, a, args)
	case "verify":
		err = runVerify(ctx, a, args)
	case "resend":
		err = runResend(ctx, a, args)
	case "apply":
		err = runApply(ctx, a, args)
	case "categories":
		err = runCategories(ctx, a, args)
	case "status":
		err = runStatus(ctx, a)
	case "logout":
		err = a.Sessions.Logout(ctx)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		// Flows have already alerted; this only sets the exit status.
		logrus.WithField("command", cmd).Debug(err)
		stop()
		os.Exit(1)
	}
}

func runRegister(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	var in registration.Input
	fs.StringVar(&in.Name, "name", "", "display name")
	fs.StringVar(&in.Email, "email", "", "account email")
	fs.StringVar(&in.Password, "password", os.Getenv("ONBOARD_PASSWORD"), "password (or ONBOARD_PASSWORD)")
	fs.StringVar(&in.Role, "role", domain.RoleVendor, "customer or vendor")
	_ = fs.Parse(args)
	in.PasswordConfirm = in.Password
	return a.Registration.Register(ctx, in)
}

func runLogin(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("ONBOARD_PASSWORD"), "password (or ONBOARD_PASSWORD)")
	_ = fs.Parse(args)
	return a.Registration.Login(ctx, *email, *password)
}

func challengeFlags(ctx context.Context, fs *flag.FlagSet, a *app.App) func() domain.OTPChallenge {
	contact := fs.String("contact", "", "where the code was sent (defaults to the session email)")
	source := fs.String("source", string(domain.OTPSourceEmail), "email, phone or reset-password")
	role := fs.String("role", domain.RoleVendor, "role carried to the next screen")
	name := fs.String("name", "", "name carried to the next screen")
	return func() domain.OTPChallenge {
		c := domain.OTPChallenge{
			Contact: *contact,
			Source:  domain.ParseOTPSource(*source),
			Role:    *role,
			Name:    *name,
		}
		if c.Contact == "" {
			c.Contact = a.Sessions.Email(ctx)
		}
		return c
	}
}

// runVerify types the code one digit at a time, the way the screen
// receives it; the sixth digit submits.
func runVerify(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	code := fs.String("code", "", "the 6 digit code")
	challenge := challengeFlags(ctx, fs, a)
	_ = fs.Parse(args)

	flow := a.NewOTPFlow(challenge())
	events := make(chan otp.Event, domain.OTPLength+1)
	for i, r := range *code {
		if i >= domain.OTPLength {
			break
		}
		events <- otp.DigitEntered{Index: i, Input: string(r)}
	}
	if len(*code) < domain.OTPLength {
		events <- otp.SubmitPressed{}
	}
	close(events)

	if err := flow.Run(ctx, events); err != nil {
		return err
	}
	if !flow.Verified() {
		return domain.ErrVerificationFailed
	}
	return nil
}

func runResend(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("resend", flag.ExitOnError)
	challenge := challengeFlags(ctx, fs, a)
	_ = fs.Parse(args)
	return a.NewOTPFlow(challenge()).Resend(ctx)
}

// applicationFile is the JSON accepted by the apply command. Fields are keyed
// by the draft field names, e.g. "fullName" or "businessRegNumber".
type applicationFile struct {
	Email               string            `json:"email"`
	Fields              map[string]string `json:"fields"`
	Categories          []string          `json:"categories"`
	IdentityDocument    string            `json:"identityDocument"`
	BusinessCertificate string            `json:"businessCertificate"`
}

func runApply(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	path := fs.String("f", "application.json", "application file")
	submit := fs.Bool("submit", true, "submit once every step is complete")
	_ = fs.Parse(args)

	raw, err := os.ReadFile(*path)
	if err != nil {
		return err
	}
	var file applicationFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("%s: %w", *path, err)
	}

	if existing, err := a.Cache.Existing(ctx, a.Sessions.Email(ctx)); err == nil && existing != nil {
		fmt.Printf("application %s is already %s\n", existing.ID, existing.Status)
		return nil
	}

	w := a.NewWizard(app.PathPicker{Image: file.IdentityDocument, Document: file.BusinessCertificate})
	if err := w.Load(ctx); err != nil {
		return err
	}
	if err := fillDraft(ctx, w, file); err != nil {
		return err
	}

	if !*submit {
		fmt.Println("draft saved")
		return nil
	}
	for _, step := range []vendorsetup.Step{vendorsetup.StepIdentity, vendorsetup.StepBusiness} {
		if err := w.Next(step); err != nil {
			return err
		}
	}
	return w.Submit(ctx)
}

func fillDraft(ctx context.Context, w *vendorsetup.Wizard, file applicationFile) error {
	d := w.Draft()
	switch {
	case file.Email == "" || strings.EqualFold(file.Email, d.Email):
	case d.Email == "":
		if err := w.SetEmail(ctx, file.Email); err != nil {
			return err
		}
	default:
		if err := w.ChangeEmail(ctx, file.Email); err != nil {
			return err
		}
	}

	// Enum order sets the country code before the phone number.
	for f := vendorsetup.FieldFullName; f <= vendorsetup.FieldRegistrationNumber; f++ {
		if v, ok := file.Fields[f.String()]; ok {
			if err := w.SetField(ctx, f, v); err != nil {
				return err
			}
		}
	}
	if res := w.ValidatePhone(); !res.Valid {
		logrus.WithError(res.Err).WithField("phone", w.Draft().Phone).Warn("phone number does not look valid")
	}

	selected := w.Draft().Categories
	for _, key := range file.Categories {
		if slices.Contains(selected, key) {
			continue
		}
		if err := w.ToggleCategory(ctx, key); err != nil {
			return err
		}
	}

	if file.IdentityDocument != "" {
		if err := w.Pick(ctx, vendorsetup.SlotIdentityDocument, vendorsetup.SourceGallery); err != nil {
			return err
		}
	}
	if file.BusinessCertificate != "" {
		if err := w.Pick(ctx, vendorsetup.SlotBusinessCertificate, vendorsetup.SourceDocuments); err != nil {
			return err
		}
	}
	return nil
}

func runCategories(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	query := fs.String("q", "", "filter the wizard's categories by label instead of listing the server's")
	_ = fs.Parse(args)

	if *query != "" || fs.NArg() > 0 {
		q := strings.TrimSpace(*query + " " + strings.Join(fs.Args(), " "))
		for _, key := range vendorsetup.FilterCategories(q, vendorsetup.EnglishLabels) {
			fmt.Printf("%-16s %s\n", key, vendorsetup.EnglishLabels.Translate(key))
		}
		return nil
	}

	token, _, _ := a.Sessions.AccessToken(ctx)
	categories, err := a.Client.ListCategories(ctx, token)
	if err != nil {
		logrus.WithError(err).Error(domain.UserMessage(err, "could not load categories"))
		return err
	}
	for _, c := range categories {
		fmt.Printf("%-16s %s\n", c.Slug, c.Name)
	}
	return nil
}

func runStatus(ctx context.Context, a *app.App) error {
	email := a.Sessions.Email(ctx)
	fmt.Printf("email:         %s\n", orNone(email))
	fmt.Printf("authenticated: %t\n", a.Sessions.Authenticated())

	rec, err := a.Cache.Existing(ctx, email)
	if err != nil {
		return err
	}
	if rec != nil {
		fmt.Printf("application:   %s (%s)\n", rec.ID, rec.Status)
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
