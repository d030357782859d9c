package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// CarRepository reads the car inventory from PostgreSQL.
type CarRepository struct {
	db *sqlx.DB
}

// NewCarRepository creates a car repository.
func NewCarRepository(db *sqlx.DB) *CarRepository {
	return &CarRepository{db: db}
}

// ListAll returns every listing in catalog order.
func (r *CarRepository) ListAll(ctx context.Context) ([]models.Car, error) {
	const query = `SELECT id, make, model, year, mileage, horsepower, price, description, image_url, style, condition, COALESCE(NULLIF(transmission, ''), 'automatic') AS transmission FROM cars ORDER BY id ASC`
	var cars []models.Car
	if err := r.db.SelectContext(ctx, &cars, query); err != nil {
		return nil, fmt.Errorf("list cars: %w", err)
	}
	return cars, nil
}

// StaticCarRepository serves a fixed inventory when no database is configured.
type StaticCarRepository struct {
	cars []models.Car
}

// NewStaticCarRepository wraps cars; a nil slice yields the seeded inventory.
func NewStaticCarRepository(cars []models.Car) *StaticCarRepository {
	if cars == nil {
		cars = SeedCars()
	}
	for i := range cars {
		if cars[i].Transmission == "" {
			cars[i].Transmission = models.DefaultTransmission
		}
	}
	return &StaticCarRepository{cars: cars}
}

// ListAll returns a copy of the inventory.
func (r *StaticCarRepository) ListAll(ctx context.Context) ([]models.Car, error) {
	out := make([]models.Car, len(r.cars))
	copy(out, r.cars)
	return out, nil
}

const seedDescription = "Lorem ipsum dolor sit amet, consectetur adipiscing elit."

// SeedCars returns the default showroom inventory.
func SeedCars() []models.Car {
	seed := func(id int, brand, model string, price int, image string) models.Car {
		return models.Car{
			ID: id, Make: brand, Model: model, Year: 2017, Mileage: 3100, Horsepower: 240,
			Price: price, Description: seedDescription, ImageURL: "assets/images/featured-cars/" + image,
			Style: "sedan", Condition: "new", Transmission: models.DefaultTransmission,
		}
	}
	return []models.Car{
		seed(1, "BMW", "6-series gran coupe", 89395, "fc1.png"),
		seed(2, "Chevrolet", "Camaro WMV20", 66575, "fc2.png"),
		seed(3, "Lamborghini", "v520", 125250, "fc3.png"),
		seed(4, "Audi", "A3 Sedan", 95500, "fc4.png"),
		seed(5, "Infiniti", "Z5", 36850, "fc4.png"),
		seed(6, "Porsche", "718 Cayman", 48500, "fc5.png"),
		seed(7, "BMW", "8-series coupe", 56000, "fc7.png"),
		seed(8, "BMW", "X series-6", 75800, "fc8.png"),
	}
}
