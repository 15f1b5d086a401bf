package service

import "github.com/hrops-platform/hrops-api/internal/repository"

// The concrete sqlx repositories must satisfy every interface the services
// consume; main hands them over directly.
var (
	_ jobPostingRepository  = (*repository.JobPostingRepository)(nil)
	_ assetRepository       = (*repository.AssetRepository)(nil)
	_ revaluationRepository = (*repository.AssetRepository)(nil)
	_ authUserRepository    = (*repository.UserRepository)(nil)
	_ userRepository        = (*repository.UserRepository)(nil)
	_ sequenceCounter       = (*repository.SequenceRepository)(nil)
	_ sequenceCounter       = (*repository.RedisSequenceRepository)(nil)
	_ CacheRepository       = (*repository.CacheRepository)(nil)
)
