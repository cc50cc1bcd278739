package utils

import (
	"github.com/badoux/checkmail"
	"github.com/sirupsen/logrus"
)

// CheckEmailAddress validates the syntax of an email address and, best
// effort, that its domain can receive mail. A failed host lookup is only
// logged: registration must not depend on outbound DNS being available.
func CheckEmailAddress(email string) error {
	if err := checkmail.ValidateFormat(email); err != nil {
		return err
	}

	if err := checkmail.ValidateHost(email); err != nil {
		logrus.WithField("email", email).Warnf("email host check failed: %v", err)
	}
	return nil
}
