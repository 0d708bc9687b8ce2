package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Format selects the log output encoding.
type Format string

const (
	JSON  Format = "json"
	Plain Format = "plain"

	timeFormat = time.RFC3339Nano
)

// NewLogger builds the service's (logrus) logger. Every line carries the
// service name and version so output from different deployments can be
// told apart.
func NewLogger(logLevel, logFormat string) (*logrus.Entry, error) {
	lvl, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}

	var formatter logrus.Formatter
	switch Format(logFormat) {
	case Plain:
		formatter = &logrus.TextFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyMsg: "message",
			},
			TimestampFormat: timeFormat,
		}
	case JSON:
		formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyMsg: "message",
			},
			TimestampFormat: timeFormat,
		}
	default:
		return nil, fmt.Errorf("invalid %s log format '%v'", ServiceName, logFormat)
	}

	l := logrus.New()
	l.SetFormatter(formatter)
	l.SetLevel(lvl)

	if lvl >= logrus.DebugLevel {
		l.Warnf("%s RUNNING IN DEBUG MODE. DO NOT RUN IN PRODUCTION ENVIRONMENT", strings.ToUpper(ServiceName))
	}

	return l.WithFields(logrus.Fields{
		"serviceName": ServiceName,
		"version":     FullVersion,
	}), nil
}
