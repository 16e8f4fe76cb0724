// Package log adapts the application's logrus logger to the logger
// interfaces of embedded dependencies.
package log

import (
	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

// BadgerLogrusAdapter satisfies badger.Logger so the work database logs
// through the same logrus entry as the rest of angelhub.
type BadgerLogrusAdapter struct {
	*logrus.Entry
}

var _ badger.Logger = (*BadgerLogrusAdapter)(nil)

// NewBadgerLogrusAdapter wraps a logrus entry, typically tagged with the
// storage component field.
func NewBadgerLogrusAdapter(entry *logrus.Entry) *BadgerLogrusAdapter {
	return &BadgerLogrusAdapter{entry}
}

func (l *BadgerLogrusAdapter) Errorf(f string, v ...interface{})   { l.Entry.Errorf(f, v...) }
func (l *BadgerLogrusAdapter) Warningf(f string, v ...interface{}) { l.Entry.Warningf(f, v...) }
func (l *BadgerLogrusAdapter) Infof(f string, v ...interface{})    { l.Entry.Infof(f, v...) }
func (l *BadgerLogrusAdapter) Debugf(f string, v ...interface{})   { l.Entry.Debugf(f, v...) }
