// Package logging provides the structured logger shared by every core
// component. All components accept a *logrus.Entry rather than reaching for
// a package-level global, so callers can attach request-scoped fields
// (prefix, repo, transaction id) before handing the entry down.
package logging

import "github.com/sirupsen/logrus"

// New returns a root entry with no fields set. Callers typically chain
// WithField/WithFields before passing the result into a component.
func New() *logrus.Entry {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logrus.NewEntry(l)
}

// Discard returns an entry that writes to nowhere, for tests and for
// callers that have not opted into trace output.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(discardWriter{})
	return logrus.NewEntry(l)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
