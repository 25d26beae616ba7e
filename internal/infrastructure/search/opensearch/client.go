// Package opensearch adapts the external passage search to the valuation
// service.  The cluster indexes raw auction-listing text; relevance ranking
// is entirely the cluster's concern, this adapter only moves passages.
package opensearch

import (
	"context"

	"github.com/opensearch-project/opensearch-go/v3"
	"github.com/opensearch-project/opensearch-go/v3/opensearchapi"

	"github.com/turtacn/AgValue-Intelligence/internal/config"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/AgValue-Intelligence/pkg/errors"
)

// Client wraps the OpenSearch API client with connection checking.
type Client struct {
	api    *opensearchapi.Client
	logger logging.Logger
}

// NewClient builds a Client from configuration.  It does not dial; use Ping
// to verify connectivity.
func NewClient(cfg config.SearchConfig, log logging.Logger) (*Client, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if len(cfg.Addresses) == 0 {
		return nil, errors.InvalidParam("search requires at least one address")
	}

	api, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses: cfg.Addresses,
			Username:  cfg.User,
			Password:  cfg.Password,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchUnavailable, "failed to build opensearch client")
	}

	return &Client{api: api, logger: log.Named("opensearch")}, nil
}

// Ping verifies the cluster answers.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.Info(ctx, nil); err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchUnavailable, "opensearch cluster is unreachable")
	}
	return nil
}
