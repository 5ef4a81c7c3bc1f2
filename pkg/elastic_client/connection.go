package elastic_client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rs/zerolog/log"
	"github.com/travigo/truck-tracker/pkg/util"
)

var ErrNotConfigured = errors.New("elasticsearch address not set")

var Client *elasticsearch.Client
var bulkIndexer esutil.BulkIndexer

type Config struct {
	Address  string
	Username string
	Password string
	// Insecure skips TLS certificate verification
	Insecure bool

	FlushInterval time.Duration
	MaxRetries    int
}

func GetConfig() Config {
	env := util.GetEnvironmentVariables()

	return Config{
		Address:       env["TRUCKTRACKER_ELASTICSEARCH_ADDRESS"],
		Username:      env["TRUCKTRACKER_ELASTICSEARCH_USERNAME"],
		Password:      env["TRUCKTRACKER_ELASTICSEARCH_PASSWORD"],
		Insecure:      env["TRUCKTRACKER_ELASTICSEARCH_INSECURE"] == "YES",
		FlushInterval: 15 * time.Second,
		MaxRetries:    5,
	}
}

// Connect sets up the push event client from the environment. Without an address it is skipped
// unless required.
func Connect(required bool) error {
	config := GetConfig()

	if config.Address == "" {
		if required {
			return ErrNotConfigured
		}

		log.Info().Msg("Skipping Elasticsearch setup")
		return nil
	}

	es, err := newClient(config)
	if err != nil {
		return err
	}

	if _, err := es.Info(); err != nil {
		return err
	}

	indexer, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        es,
		FlushInterval: config.FlushInterval,
	})
	if err != nil {
		return err
	}

	Client = es
	bulkIndexer = indexer

	log.Info().Str("address", config.Address).Msg("Elasticsearch client setup")

	return nil
}

func newClient(config Config) (*elasticsearch.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.Insecure {
		transport.TLSClientConfig.InsecureSkipVerify = true
	}

	retryBackoff := backoff.NewExponentialBackOff()

	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{config.Address},
		Username:  config.Username,
		Password:  config.Password,
		Transport: transport,

		RetryOnStatus: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusTooManyRequests},
		RetryBackoff: func(attempt int) time.Duration {
			if attempt == 1 {
				retryBackoff.Reset()
			}
			return retryBackoff.NextBackOff()
		},
		MaxRetries: config.MaxRetries,
	})
}

// IndexRequest queues the document for bulk indexing. It is a no-op when Elasticsearch is not
// configured.
func IndexRequest(indexName string, document io.ReadSeeker) {
	if Client == nil || bulkIndexer == nil {
		return
	}

	err := bulkIndexer.Add(
		context.Background(),
		esutil.BulkIndexerItem{
			Index:  indexName,
			Action: "index",
			Body:   document,
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				if err != nil {
					log.Error().Err(err).Str("indexName", indexName).Msg("Failed to index document")
				} else {
					log.Error().Str("type", res.Error.Type).Str("reason", res.Error.Reason).Msg("Failed to index document")
				}
			},
		},
	)
	if err != nil {
		log.Error().Err(err).Str("indexName", indexName).Msg("Failed to queue document")
	}
}

// WaitUntilQueueEmpty flushes queued documents and stops the bulk indexer
func WaitUntilQueueEmpty() {
	if bulkIndexer == nil {
		return
	}

	if err := bulkIndexer.Close(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to flush Elasticsearch queue")
	}
	bulkIndexer = nil
}
