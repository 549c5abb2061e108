// seed-demo populates the database with deterministic demo data: listings,
// availability calendars, market samples and daily demand features.
//
// Usage: go run ./scripts/seed-demo [-days 180] [-listings 20] [-profile seed.yaml]
//
// Database connection: Uses standard PG* environment variables via config.yaml.
//
// The generator is seeded, so repeated runs against a wiped database produce
// identical data.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rentpulse/pricing-engine/pkg/config"
	"github.com/rentpulse/pricing-engine/pkg/database"
	"github.com/rentpulse/pricing-engine/pkg/models"
	"github.com/rentpulse/pricing-engine/pkg/repositories"
)

const randSeed = 42

// CityProfile describes one market in the seed profile.
type CityProfile struct {
	Name      string  `yaml:"name"`
	BasePrice float64 `yaml:"base_price"`
}

// SeedProfile optionally overrides the built-in demo markets.
type SeedProfile struct {
	Cities   []CityProfile `yaml:"cities"`
	Listings int           `yaml:"listings"`
	Days     int           `yaml:"days"`
}

func defaultProfile() SeedProfile {
	return SeedProfile{
		Cities: []CityProfile{
			{Name: "Bengaluru", BasePrice: 3200},
			{Name: "Mumbai", BasePrice: 4100},
			{Name: "Pune", BasePrice: 2600},
			{Name: "Delhi", BasePrice: 3500},
			{Name: "Hyderabad", BasePrice: 2800},
			{Name: "Chennai", BasePrice: 2700},
			{Name: "Goa", BasePrice: 4500},
		},
		Listings: 20,
		Days:     180,
	}
}

func main() {
	days := flag.Int("days", 0, "Days of market/feature history to seed (overrides profile)")
	listings := flag.Int("listings", 0, "Number of demo listings to create (overrides profile)")
	profilePath := flag.String("profile", "", "Optional YAML seed profile")
	flag.Parse()

	profile := defaultProfile()
	if *profilePath != "" {
		raw, err := os.ReadFile(*profilePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read profile: %v\n", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(raw, &profile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to parse profile: %v\n", err)
			os.Exit(1)
		}
		if len(profile.Cities) == 0 {
			fmt.Fprintln(os.Stderr, "Profile must define at least one city")
			os.Exit(1)
		}
	}
	if *days > 0 {
		profile.Days = *days
	}
	if *listings > 0 {
		profile.Listings = *listings
	}

	cfg, err := config.Load("seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: 5,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := seed(ctx, db, profile); err != nil {
		fmt.Fprintf(os.Stderr, "Seed failed: %v\n", err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, db *database.DB, profile SeedProfile) error {
	rng := rand.New(rand.NewSource(randSeed))

	listingRepo := repositories.NewListingRepository(db)
	calendarRepo := repositories.NewCalendarRepository(db)
	sampleRepo := repositories.NewMarketSampleRepository(db)
	featuresRepo := repositories.NewFeaturesRepository(db)

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -profile.Days/2)

	// Listings spread round-robin across cities
	created := make([]*models.Listing, 0, profile.Listings)
	for i := 0; i < profile.Listings; i++ {
		city := profile.Cities[i%len(profile.Cities)]
		listing := &models.Listing{
			Title: fmt.Sprintf("%s Stay #%d", city.Name, i+1),
			City:  city.Name,
			Rooms: 1 + rng.Intn(4),
		}
		if err := listingRepo.Create(ctx, listing); err != nil {
			return fmt.Errorf("create listing: %w", err)
		}
		created = append(created, listing)
	}
	fmt.Printf("Created %d listings across %d cities\n", len(created), len(profile.Cities))

	// Availability calendars
	calendarDays := make([]*models.CalendarDay, 0, len(created)*profile.Days)
	for _, listing := range created {
		for d := 0; d < profile.Days; d++ {
			calendarDays = append(calendarDays, &models.CalendarDay{
				ListingID: listing.ID,
				Dt:        start.AddDate(0, 0, d),
				MinNights: 1 + rng.Intn(2),
				Blocked:   rng.Float64() < 0.05,
			})
		}
	}
	if err := calendarRepo.BulkInsert(ctx, calendarDays); err != nil {
		return fmt.Errorf("insert calendar: %w", err)
	}
	fmt.Printf("Created %d calendar days\n", len(calendarDays))

	// Market samples and demand features per (city, day)
	samples := make([]*models.MarketSample, 0, len(profile.Cities)*profile.Days)
	features := make([]*models.FeaturesDaily, 0, len(profile.Cities)*profile.Days)
	for _, city := range profile.Cities {
		for d := 0; d < profile.Days; d++ {
			dt := start.AddDate(0, 0, d)

			price := city.BasePrice * (0.85 + 0.3*rng.Float64())
			occ := 55 + 30*rng.Float64()
			if wd := dt.Weekday(); wd == time.Friday || wd == time.Saturday {
				price *= 1.08
				occ += 5
			}

			samples = append(samples, &models.MarketSample{
				City:      city.Name,
				Dt:        dt,
				Price:     float64(int(price*100)) / 100,
				Occupancy: float64(int(occ*100)) / 100,
				NListings: 40 + rng.Intn(160),
			})

			feature := &models.FeaturesDaily{
				City: city.Name,
				Dt:   dt,
			}
			if rng.Float64() < 0.08 {
				feature.EventScore = float64(1 + rng.Intn(10))
			}
			if rng.Float64() < 0.04 {
				feature.IsHoliday = true
				feature.HolidayName = "Regional holiday"
				feature.EventScore += 3
			}
			temp := 18 + 16*rng.Float64()
			precip := 0.0
			if rng.Float64() < 0.3 {
				precip = 25 * rng.Float64()
			}
			feature.AvgTemp = &temp
			feature.PrecipMM = &precip
			features = append(features, feature)
		}
	}
	if err := sampleRepo.BulkInsert(ctx, samples); err != nil {
		return fmt.Errorf("insert market samples: %w", err)
	}
	if err := featuresRepo.BulkInsert(ctx, features); err != nil {
		return fmt.Errorf("insert features: %w", err)
	}
	fmt.Printf("Created %d market samples and %d feature rows\n", len(samples), len(features))

	return nil
}
