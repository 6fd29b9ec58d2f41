package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/selara/backend-store/internal/auth"
	"github.com/selara/backend-store/internal/domain"
	"github.com/selara/backend-store/internal/repo"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	gofakeit.Seed(42)

	seedUsers(ctx, pool)
	seedProducts(ctx, pool)
	seedDiscounts(ctx, pool)

	log.Println("seeding completed")
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) {
	users := repo.Users{DB: pool}
	hash, err := argon2id.CreateHash("password123", argon2id.DefaultParams)
	if err != nil {
		log.Fatalf("hash seed password: %v", err)
	}

	accounts := []struct {
		name  string
		email string
		roles []string
	}{
		{"Store Admin", "admin@selara.id", []string{"customer", auth.RoleAdmin}},
		{"Ayu Lestari", "ayu@example.com", []string{"customer"}},
		{"Bima Pratama", "bima@example.com", []string{"customer"}},
	}

	log.Println("seeding users")
	for _, a := range accounts {
		if _, err := users.Create(ctx, a.name, a.email, hash, a.roles); err != nil {
			if errors.Is(err, repo.ErrDuplicateEmail) {
				continue
			}
			log.Printf("seed user %s: %v", a.email, err)
		}
	}
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool) {
	products := repo.Products{DB: pool}

	log.Println("seeding products")
	for i := 0; i < 12; i++ {
		name := gofakeit.ProductName()
		slug := slugify(name)
		if _, err := products.GetBySlug(ctx, slug); err == nil {
			continue
		}
		price := int64(gofakeit.Number(4990, 49990))
		compareAt := price + int64(gofakeit.Number(500, 5000))
		desc := gofakeit.ProductDescription()
		thumb := fmt.Sprintf("https://cdn.selara.id/products/%s.jpg", slug)

		_, err := products.Create(ctx, domain.Product{
			Title:       name,
			Slug:        slug,
			Description: desc,
			Price:       price,
			CompareAt:   &compareAt,
			InStock:     gofakeit.Number(0, 9) > 1,
			Thumbnail:   &thumb,
			Images:      []string{thumb},
		})
		if err != nil {
			log.Printf("seed product %s: %v", slug, err)
		}
	}
}

func seedDiscounts(ctx context.Context, pool *pgxpool.Pool) {
	discounts := repo.Discounts{DB: pool}
	now := time.Now()
	end := now.AddDate(0, 1, 0)
	limit := int32(100)

	codes := []domain.DiscountCode{
		{
			Code:           "WELCOME10",
			Type:           domain.DiscountPercentage,
			Value:          1000,
			Scope:          domain.ScopeCart,
			LimitationType: domain.LimitationDateRange,
			StartDate:      &now,
			EndDate:        &end,
			IsActive:       true,
		},
		{
			Code:           "HEMAT5000",
			Type:           domain.DiscountFixedAmount,
			Value:          5000,
			Scope:          domain.ScopeCart,
			LimitationType: domain.LimitationUsageLimit,
			UsageLimit:     &limit,
			IsActive:       true,
		},
	}

	log.Println("seeding discount codes")
	for _, c := range codes {
		if _, err := discounts.GetByCode(ctx, c.Code); err == nil {
			continue
		}
		if _, err := discounts.Create(ctx, c); err != nil {
			log.Printf("seed discount %s: %v", c.Code, err)
		}
	}
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
