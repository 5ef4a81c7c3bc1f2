package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/travigo/truck-tracker/pkg/database"
	"github.com/travigo/truck-tracker/pkg/redis_client"
)

const healthTimeout = 5 * time.Second

type QueueSummary struct {
	Ready     int64 `json:"ready"`
	Rejected  int64 `json:"rejected"`
	Unacked   int64 `json:"unacked"`
	Consumers int64 `json:"consumers"`
}

// StatsServerHandler serves rmq's HTML overview, or a per-queue JSON summary with ?format=json
type StatsServerHandler struct {
	queueConnection rmq.Connection
}

func NewStatsHandler(connection rmq.Connection) *StatsServerHandler {
	return &StatsServerHandler{queueConnection: connection}
}

func (handler *StatsServerHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	stats, err := handler.collect()
	if err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}

	if request.FormValue("format") != "json" {
		fmt.Fprint(writer, stats.GetHtml(request.FormValue("layout"), request.FormValue("refresh")))
		return
	}

	summaries := map[string]QueueSummary{}
	for name, stat := range stats.QueueStats {
		summaries[name] = QueueSummary{
			Ready:     stat.ReadyCount,
			Rejected:  stat.RejectedCount,
			Unacked:   stat.UnackedCount(),
			Consumers: stat.ConsumerCount(),
		}
	}

	writer.Header().Set("Content-Type", "application/json")
	json.NewEncoder(writer).Encode(summaries)
}

func (handler *StatsServerHandler) collect() (rmq.Stats, error) {
	queues, err := handler.queueConnection.GetOpenQueues()
	if err != nil {
		return rmq.Stats{}, fmt.Errorf("list queues: %w", err)
	}

	stats, err := handler.queueConnection.CollectStats(queues)
	if err != nil {
		return rmq.Stats{}, fmt.Errorf("collect queue stats: %w", err)
	}

	return stats, nil
}

// HealthHandler checks redis and, once connected, postgres
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (handler *HealthHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), healthTimeout)
	defer cancel()

	if err := redis_client.Client.Ping(ctx).Err(); err != nil {
		http.Error(writer, fmt.Sprintf("redis: %s", err), http.StatusInternalServerError)
		return
	}

	if database.GlobalGorm != nil {
		sqlDB, err := database.GlobalGorm.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			http.Error(writer, fmt.Sprintf("postgres: %s", err), http.StatusInternalServerError)
			return
		}
	}

	fmt.Fprint(writer, "OK")
}
