package seed

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/sirupsen/logrus"

	"github.com/classpathio/order-service/pkg/models"
)

type Repository interface {
	Save(ctx context.Context, order *models.Order) error
}

// Run inserts count randomized demo orders at startup. Seed failures are
// logged and skipped; a broken seeder must not stop the service.
func Run(ctx context.Context, repo Repository, count int, logger *logrus.Logger) {
	faker := gofakeit.New(0)

	seeded := 0
	for i := 0; i < count; i++ {
		order := generate(faker)
		if err := repo.Save(ctx, order); err != nil {
			logger.WithError(err).Error("Failed to seed order")
			continue
		}
		seeded++
	}

	logger.WithField("count", seeded).Info("Seeded demo orders")
}

func generate(faker *gofakeit.Faker) *models.Order {
	firstName := faker.FirstName()
	now := time.Now()

	order := &models.Order{
		Name:  firstName,
		Email: strings.ToLower(firstName) + "@" + faker.DomainName(),
		Date:  models.NewDate(faker.DateRange(now.AddDate(0, 0, -4), now)),
	}

	itemCount := faker.Number(1, 2)
	for i := 0; i < itemCount; i++ {
		order.LineItems = append(order.LineItems, models.LineItem{
			Name:  faker.ProductName(),
			Qty:   faker.Number(2, 3),
			Price: faker.Price(400, 600),
		})
	}

	// The derived total is only guaranteed for seeded orders; client
	// submissions carry whatever total they claim.
	order.Price = round2(order.Total())

	return order
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
