// Package service holds the business operations behind the HTTP handlers.
package service

import (
	"errors"

	"github.com/LeoQ9904/back-ecommerce/internal/domain"
	"github.com/sirupsen/logrus"
)

// logFailure logs unexpected failures. Domain errors are the caller's problem
// and are reported through the response instead.
func logFailure(log logrus.FieldLogger, err error, msg string, fields logrus.Fields) {
	var de *domain.Error
	if errors.As(err, &de) {
		return
	}
	log.WithError(err).WithFields(fields).Error(msg)
}
