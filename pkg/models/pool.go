// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"gopkg.in/typ.v4/sync2"
)

// Pool reusable objects to reduce garbage collector
type Pool struct {
	PlaylistItems *sync2.Pool[[]*PlaylistItem]
}

func NewPool() *Pool {
	return &Pool{
		PlaylistItems: &sync2.Pool[[]*PlaylistItem]{
			New: func() []*PlaylistItem {
				return make([]*PlaylistItem, 0, 16)
			},
		},
	}
}
