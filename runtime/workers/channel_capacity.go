package workers

import (
	"context"
	"log/slog"
	"reflect"
	"time"
)

type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelCapacityWorker periodically samples the fill level of buffered channels
// and warns once one goes above lowCapacityThreshold percent.
// Reading len and cap is non-blocking, it won't interfere with producers.
type ChannelCapacityWorker struct {
	log                  *slog.Logger
	channels             []NamedChannel
	lowCapacityThreshold int
	metricInterval       time.Duration
}

func NewChannelCapacityWorker(log *slog.Logger, channels []NamedChannel,
	lowCapacityThreshold int, metricInterval time.Duration) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:                  log,
		channels:             channels,
		lowCapacityThreshold: lowCapacityThreshold,
		metricInterval:       metricInterval,
	}
}

func (w *ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping channel sampling")
			return nil
		case <-ticker.C:
			w.Sample()
		}
	}
}

// Sample logs every channel above the threshold and returns their names.
func (w *ChannelCapacityWorker) Sample() []string {
	var saturated []string
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		// Verify if this is a channel
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		capacity, length := v.Cap(), v.Len()
		if capacity == 0 {
			continue
		}
		percent := length * 100 / capacity
		if percent >= w.lowCapacityThreshold {
			saturated = append(saturated, nc.Name)
			w.log.Warn("Channel is filling up", "name", nc.Name,
				"length", length, "capacity", capacity, "percent", percent)
		}
	}
	return saturated
}
