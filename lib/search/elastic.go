package search

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/olivere/elastic.v5"
	"gopkg.in/olivere/elastic.v5/config"
)

// mapping is the default mapping to use when creating the release index if it
// doesn't exist. Documents are keyed by release GUID; the numeric release id
// lives in the source for combining matches with relational filters.
const mapping = `
{
  "settings": {
    "number_of_shards": 1
  },

  "mappings": {
    "release": {
      "properties": {
        "id": {
          "type": "long",
          "index": true
        },
        "searchname": {
          "type": "text",
          "index": true
        },
        "name": {
          "type": "text",
          "index": true
        },
        "fromname": {
          "type": "keyword",
          "ignore_above": 255,
          "index": true
        },
        "filename": {
          "type": "text",
          "index": true
        }
      }
    }
  }
}`

// releaseDoc is the subset of an index document the catalog reads back.
type releaseDoc struct {
	ID int64 `json:"id"`
}

// Elastic is an Index backed by an Elasticsearch server.
type Elastic struct {
	ctx     context.Context
	elastic *elastic.Client
	index   string
}

var _ Index = &Elastic{}

// NewElastic creates a new Elasticsearch connection and returns an Elastic
// using that connection. The index is created with the default mapping if it
// doesn't exist.
func NewElastic(elasticURL string) (*Elastic, error) {
	// Parse elasticURL
	cfg, err := config.Parse(elasticURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse elasticURL")
	}
	if cfg.Index == "" {
		log.Info().Msg(`empty index name in elasticURL, using "releases"`)
		cfg.Index = "releases"
	}

	// Create client and ping Elasticsearch server
	client, err := elastic.NewClientFromConfig(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create elastic client")
	}
	ctx := context.Background()
	info, code, err := client.Ping(cfg.URL).Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to ping Elasticsearch server")
	}
	log.Debug().Int("statusCode", code).Str("version", info.Version.Number).Msg("elasticsearch ping success")

	// Check if the index exists or create it
	exists, err := client.IndexExists(cfg.Index).Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to determine if the index exists")
	}
	if !exists {
		log.Info().Str("index", cfg.Index).Msg("creating Elasticsearch index")
		createIndex, err := client.CreateIndex(cfg.Index).
			BodyString(mapping).
			Do(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create missing index on Elasticsearch")
		}
		if !createIndex.Acknowledged {
			return nil, errors.New("failed to create missing index on Elasticsearch: not acknowledged")
		}
	}

	return &Elastic{
		ctx:     ctx,
		elastic: client,
		index:   cfg.Index,
	}, nil
}

// MatchIDs implements Index. Every term must match in its own field.
func (e *Elastic) MatchIDs(terms map[Field]string, limit int) ([]int64, error) {
	// Iterate fields in a fixed order so generated queries are stable.
	fields := make([]string, 0, len(terms))
	for field := range terms {
		fields = append(fields, string(field))
	}
	sort.Strings(fields)

	query := elastic.NewBoolQuery()
	for _, field := range fields {
		query.Must(elastic.NewMatchQuery(field, terms[Field(field)]).Operator("and"))
	}

	result, err := e.elastic.Search().
		Index(e.index).
		Type("release").
		Query(query).
		Size(limit).
		FetchSourceContext(elastic.NewFetchSourceContext(true).Include("id")).
		Do(e.ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search release index")
	}

	ids := make([]int64, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		if hit.Source == nil {
			continue
		}
		var doc releaseDoc
		if err := json.Unmarshal(*hit.Source, &doc); err != nil {
			log.Warn().Err(err).Str("guid", hit.Id).Msg("skipping malformed release document")
			continue
		}
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

// DeleteRelease implements Index.
func (e *Elastic) DeleteRelease(guid string) error {
	_, err := e.elastic.Delete().
		Index(e.index).
		Type("release").
		Id(guid).
		Do(e.ctx)
	if elastic.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to delete release document")
	}
	return nil
}
