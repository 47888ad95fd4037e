package service

import (
	"github.com/curbline/curbline/internal/repository"
	redisrepo "github.com/curbline/curbline/internal/repository/redis"
	"github.com/curbline/curbline/internal/service/lifecycle"
	"github.com/curbline/curbline/internal/service/query"
)

type Services struct {
	Lifecycle *lifecycle.Service
	Query     *query.Service
}

type Config struct {
	Lifecycle lifecycle.Config
	Query     query.Config
}

func NewServices(
	store repository.SpotStore,
	cache *redisrepo.Cache,
	pub lifecycle.Publisher,
	limiter *redisrepo.SlidingWindowLimiter,
	cfg Config,
) *Services {
	return &Services{
		Lifecycle: lifecycle.New(store, cache, pub, limiter, cfg.Lifecycle),
		Query:     query.New(store, cache, cfg.Query),
	}
}
