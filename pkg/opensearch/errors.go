package opensearch

import "errors"

var (
	ErrConnectionFailed  = errors.New("opensearch.connection_failed")
	ErrHealthcheckFailed = errors.New("opensearch.healthcheck_failed")
	ErrIndexSetup        = errors.New("opensearch.index_setup_failed")
)
