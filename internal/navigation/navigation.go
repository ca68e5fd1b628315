// Package navigation declares the router and notification collaborators the
// flows drive. The mobile shell implements them; LogNavigator and LogNotifier
// are used by headless tools.
package navigation

import (
	"github.com/sirupsen/logrus"
)

type Route string

const (
	RouteRegister             Route = "Register"
	RouteLogin                Route = "Login"
	RouteOTP                  Route = "VerifyOTP"
	RouteCreatePassword       Route = "CreatePassword"
	RouteVerificationSuccess  Route = "VerificationSuccess"
	RouteVendorSetupIdentity  Route = "VendorSetupStep1"
	RouteVendorSetupBusiness  Route = "VendorSetupStep2"
	RouteVendorSetupDocuments Route = "VendorSetupStep3"
	RouteApplicationSubmitted Route = "VendorApplicationSubmitted"
)

// Params are non-secret navigation parameters. Tokens never travel here.
type Params map[string]string

type Navigator interface {
	Navigate(route Route, params Params)
}

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityError
)

// Action is a button on an alert that navigates somewhere.
type Action struct {
	Label string
	Route Route
}

type Alert struct {
	Severity Severity
	Title    string
	Message  string
	Actions  []Action
}

// Notifier shows one discrete, human readable notification per call.
type Notifier interface {
	Alert(a Alert)
}

// ReLogin is the action attached to irrecoverable session failures.
var ReLogin = Action{Label: "Go to Login", Route: RouteLogin}

type LogNavigator struct{}

func (LogNavigator) Navigate(route Route, params Params) {
	fields := logrus.Fields{"route": route}
	for k, v := range params {
		fields["param."+k] = v
	}
	logrus.WithFields(fields).Info("navigate")
}

type LogNotifier struct{}

func (LogNotifier) Alert(a Alert) {
	entry := logrus.WithField("title", a.Title)
	if len(a.Actions) > 0 {
		entry = entry.WithField("action", a.Actions[0].Label)
	}
	if a.Severity == SeverityError {
		entry.Warn(a.Message)
		return
	}
	entry.Info(a.Message)
}
