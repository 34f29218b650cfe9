// Package service holds the story, forum and stats operations on top of the
// gorm store.
package service

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service runs community operations against the database.
type Service struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// New returns a Service using db for storage and log for server-side errors.
func New(db *gorm.DB, log logrus.FieldLogger) *Service {
	return &Service{db: db, log: log}
}
