package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/opensearch-project/opensearch-go/v3/opensearchapi"

	"github.com/turtacn/AgValue-Intelligence/internal/config"
	"github.com/turtacn/AgValue-Intelligence/internal/domain/comps"
	"github.com/turtacn/AgValue-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/AgValue-Intelligence/pkg/errors"
)

// queryContextPrefix steers the full-text match toward auction-sale
// passages rather than dealer listings or spec sheets.
const queryContextPrefix = "Searching for comparable farm equipment sales: "

// listingDocument is the indexed shape of one auction-listing snippet.
type listingDocument struct {
	Content string `json:"content"`
}

// Searcher retrieves auction-listing passages for a free-text query.
type Searcher struct {
	client  *Client
	index   string
	topK    int
	timeout time.Duration
	logger  logging.Logger
}

// NewSearcher builds a Searcher over an established client.
func NewSearcher(client *Client, cfg config.SearchConfig, log logging.Logger) *Searcher {
	if log == nil {
		log = logging.NewNopLogger()
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 10
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Searcher{
		client:  client,
		index:   cfg.Index,
		topK:    topK,
		timeout: timeout,
		logger:  log.Named("searcher"),
	}
}

// Search returns up to topK passages matching query.  brandHint is echoed
// onto every returned passage so downstream extraction can prioritise the
// caller's manufacturer.
func (s *Searcher) Search(ctx context.Context, query, brandHint string) ([]comps.Passage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(map[string]interface{}{
		"size": s.topK,
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"content": map[string]interface{}{
					"query": queryContextPrefix + query,
				},
			},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to build search request")
	}

	resp, err := s.client.api.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{s.index},
		Body:    bytes.NewReader(body),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchUnavailable, "passage search failed")
	}

	passages := make([]comps.Passage, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		var doc listingDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSearchParseError, "malformed listing document")
		}
		if doc.Content == "" {
			continue
		}
		passages = append(passages, comps.Passage{Text: doc.Content, BrandHint: brandHint})
	}

	s.logger.Debug("passage search completed",
		logging.String("index", s.index),
		logging.Int("hits", len(resp.Hits.Hits)),
		logging.Int("passages", len(passages)),
	)
	return passages, nil
}
