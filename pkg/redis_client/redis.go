package redis_client

import (
	"context"
	"strconv"

	"github.com/adjust/rmq/v5"
	"github.com/redis/go-redis/v9"
	"github.com/travigo/truck-tracker/pkg/util"
)

var Client *redis.Client
var QueueConnection rmq.Connection

const defaultConnectionAddress = "localhost:6379"
const defaultConnectionPassword = ""
const defaultDatabase = 0

// QueueTag names the rmq connection; every process sharing queues must use the same tag
const QueueTag = "trucktracker"

func Connect() error {
	address := defaultConnectionAddress
	password := defaultConnectionPassword
	database := defaultDatabase

	env := util.GetEnvironmentVariables()

	if env["TRUCKTRACKER_REDIS_ADDRESS"] != "" {
		address = env["TRUCKTRACKER_REDIS_ADDRESS"]
	}

	if env["TRUCKTRACKER_REDIS_PASSWORD"] != "" {
		password = env["TRUCKTRACKER_REDIS_PASSWORD"]
	}

	if env["TRUCKTRACKER_REDIS_DATABASE"] != "" {
		if n, err := strconv.Atoi(env["TRUCKTRACKER_REDIS_DATABASE"]); err == nil {
			database = n
		} else {
			return err
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       database,
	})

	return Use(client)
}

// Use installs an already created client, opening the queue connection on top of it
func Use(client *redis.Client) error {
	statusCmd := client.Ping(context.Background())
	if err := statusCmd.Err(); err != nil {
		return err
	}

	queueConnection, err := rmq.OpenConnectionWithRedisClient(QueueTag, client, nil)
	if err != nil {
		return err
	}

	Client = client
	QueueConnection = queueConnection

	return nil
}
