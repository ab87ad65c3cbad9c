package mongo

import "errors"

var (
	ErrFailedToConnect   = errors.New("mongo.failed_to_connect")
	ErrHealthcheckFailed = errors.New("mongo.healthcheck_failed")
)
