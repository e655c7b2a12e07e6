package report

import (
	"go.uber.org/atomic"
)

type ProfilesErrors struct {
	DbError atomic.Uint64 `json:"db_error"`
}

type ProfilesState struct {
	ProfilesCreated atomic.Uint64 `json:"profiles_created"`
	ProfilesUpdated atomic.Uint64 `json:"profiles_updated"`
	CacheHits       atomic.Uint64 `json:"cache_hits"`
	CacheMisses     atomic.Uint64 `json:"cache_misses"`
}

type ProfilesReport struct {
	State  ProfilesState  `json:"state"`
	Errors ProfilesErrors `json:"errors"`
}
