package repository

import (
	"errors"
)

// 仓储层哨兵错误，service / controller 据此分流
var (
	// ErrAccountNotFound 账号不存在 (删除不存在的账号必须显式报错，不能静默成功)
	ErrAccountNotFound = errors.New("instagram account not found")

	// ErrPostNotFound 帖子不存在
	ErrPostNotFound = errors.New("instagram post not found")
)
