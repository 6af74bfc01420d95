// Copyright 2024 Nydus Developers. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	TextFormat = "text"
	JSONFormat = "json"
)

// SetUp configures the package level logrus logger.
func SetUp(logLevel, format string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", logLevel)
	}

	switch format {
	case TextFormat, "":
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	case JSONFormat:
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return errors.Errorf("invalid log format %q", format)
	}
	logrus.SetLevel(level)
	return nil
}
