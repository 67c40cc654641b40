package redis

import "errors"

var (
	ErrEmptyConnectionURL           = errors.New("empty redis connection URL, use REDIS_URL env var")
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not answer within REDIS_CONNECT_TIMEOUT")
	ErrHealthcheckFailed            = errors.New("redis ping failed")
)
