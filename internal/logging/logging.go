// Package logging provides the structured logger used across the
// accessor stack, modeled on the teacher's per-subsystem logrus entry
// convention (velociraptor/logging).
package logging

import "github.com/sirupsen/logrus"

// Get returns a logger entry scoped to the named subsystem (e.g.
// "volume", "ntfsfs", "links", "accessor").
func Get(subsystem string) *logrus.Entry {
	return logrus.WithField("component", subsystem)
}

// WithPath is a convenience for the common case of logging a failure
// about a specific path.
func WithPath(subsystem, path string) *logrus.Entry {
	return Get(subsystem).WithField("path", path)
}
