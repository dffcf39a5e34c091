/*
Copyright 2026 Meridian Bank Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package meridian

import (
	"context"
	"embed"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-bank/meridian/config"
	"github.com/meridian-bank/meridian/database"
	"github.com/meridian-bank/meridian/internal/apierror"
	redis_db "github.com/meridian-bank/meridian/internal/redis-db"
)

// Meridian is the core banking service: accounts, the ledger, funds
// transfers, verification credentials and multi-factor transfer
// authorizations.
type Meridian struct {
	datasource database.IDataSource
	redis      redis.UniversalClient
}

//go:embed sql/*.sql
var SQLFiles embed.FS

// transientRetryLimit bounds how often a lock-conflicted operation is retried
// before the transient failure is surfaced to the caller.
const transientRetryLimit = 3

// NewMeridian initializes the service over the provided datasource. Redis
// backs the per-user OTP locks.
func NewMeridian(db database.IDataSource) (*Meridian, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{fmt.Sprintf("redis://%s", configuration.Redis.Dns)})
	if err != nil {
		return nil, err
	}
	return &Meridian{datasource: db, redis: redisClient.Client()}, nil
}

// withRetry re-runs an operation that failed on lock contention or a
// serialization conflict. Anything else is permanent; business failures must
// not be retried because they are answers, not accidents.
func withRetry(ctx context.Context, operation func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), transientRetryLimit), ctx)
	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}
		if apierror.CodeOf(err) == apierror.ErrTransient {
			return err
		}
		return backoff.Permanent(err)
	}, policy)
}
