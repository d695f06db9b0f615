package session

import "github.com/tgifai/sessiond/internal/consts"

const (
	defaultIDBytes     = consts.DefaultIDBytes
	defaultMaxIdle     = consts.MaxIdle
	defaultMaxLifetime = consts.MaxLifetime
)
