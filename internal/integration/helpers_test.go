//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/city-insight-service/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-node Kafka container and returns its broker
// address. The container is torn down when the test finishes.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)

	return brokers[0]
}

// createTopic pre-creates a topic so consumers do not race topic auto-creation.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial kafka broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

func sampleBundles() []domain.FeatureBundle {
	f := func(v float64) *float64 { return &v }
	i := func(v int64) *int64 { return &v }

	return []domain.FeatureBundle{
		{
			City: domain.CityIdentifier{
				Slug: "austin-tx", Name: "Austin", State: "TX", Country: "USA",
				Population: i(961855), SizeCategory: "large",
			},
			Economy: &domain.EconomyFeatures{
				GDPPerCapita:     f(85000),
				UnemploymentRate: f(3.4),
			},
			Livability: &domain.LivabilityFeatures{
				AQI:               f(52),
				CostOfLivingIndex: f(103),
				Population:        i(961855),
			},
			Growth: &domain.GrowthFeatures{
				PopulationGrowthRate: f(2.1),
				GDPGrowthRate:        f(4.3),
			},
		},
		{
			City: domain.CityIdentifier{
				Slug: "marfa-tx", Name: "Marfa", State: "TX", Country: "USA",
			},
		},
	}
}
