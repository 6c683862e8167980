// Command seed-db prepares a database for local development: it applies the
// schema and upserts a demo user with an API key, a product catalog and a
// couple of coupons, then fills the demo user's cart.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketloop/checkout/internal/storage/postgres"
)

type productJSON struct {
	Name               string          `json:"name"`
	OriginalPrice      decimal.Decimal `json:"originalPrice"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	Stock              int32           `json:"stock"`
}

// demoUserID is stable across runs so repeated seeding stays idempotent.
var demoUserID = uuid.MustParse("6f1f0f1e-9f51-4f4a-8a34-1f7f8f0a2d10")

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or CHECKOUT_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or CHECKOUT_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("CHECKOUT_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or CHECKOUT_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("CHECKOUT_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedUser(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed user")
	}

	productIDs, err := seedProducts(ctx, pool, productsFile)
	if err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	if err := seedCart(ctx, pool, productIDs); err != nil {
		return errors.Wrap(err, "seed cart")
	}

	return nil
}

func seedUser(ctx context.Context, q postgres.Querier, apiKey, pepper string) error {
	slog.Info("seeding demo user and API key")

	_, err := q.Exec(ctx, `
		INSERT INTO users (id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET email = excluded.email, name = excluded.name`,
		demoUserID, "demo@example.com", "Demo User")
	if err != nil {
		return errors.Wrap(err, "upsert user")
	}

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	_, err = q.Exec(ctx, `
		INSERT INTO api_keys (key_hash, user_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (key_hash) DO NOTHING`,
		keyHash, demoUserID, "Default test key")
	if err != nil {
		return errors.Wrap(err, "upsert api key")
	}

	return nil
}

func seedProducts(ctx context.Context, q postgres.Querier, productsFile string) ([]uuid.UUID, error) {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return nil, errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	hundred := decimal.NewFromInt(100)
	ids := make([]uuid.UUID, 0, len(products))

	for _, p := range products {
		salePrice := p.OriginalPrice.
			Mul(hundred.Sub(p.DiscountPercentage)).
			Div(hundred).
			Round(2)

		var id uuid.UUID
		err := q.QueryRow(ctx, `
			INSERT INTO products (id, name, original_price, discount_percentage, sale_price, stock)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (name) DO UPDATE SET
				original_price      = excluded.original_price,
				discount_percentage = excluded.discount_percentage,
				sale_price          = excluded.sale_price,
				stock               = excluded.stock,
				updated_at          = now()
			RETURNING id`,
			uuid.New(), p.Name, p.OriginalPrice, p.DiscountPercentage, salePrice, p.Stock,
		).Scan(&id)
		if err != nil {
			return nil, errors.Wrapf(err, "upsert product %q", p.Name)
		}

		ids = append(ids, id)
		slog.Info("upserted product", slog.String("id", id.String()), slog.String("name", p.Name))
	}

	return ids, nil
}

func seedCoupons(ctx context.Context, q postgres.Querier) error {
	slog.Info("seeding demo coupons")

	now := time.Now()
	coupons := []struct {
		code         string
		discount     decimal.Decimal
		discountType string
		start, end   time.Time
		duration     int32
	}{
		{
			code:         "HAPPYHOURS",
			discount:     decimal.NewFromInt(18),
			discountType: "percentage",
			start:        now.Add(-24 * time.Hour),
			end:          now.Add(30 * 24 * time.Hour),
			duration:     3,
		},
		{
			code:         "WELCOME10",
			discount:     decimal.NewFromInt(10),
			discountType: "fixed",
			start:        now.Add(-24 * time.Hour),
			end:          now.Add(90 * 24 * time.Hour),
			duration:     1,
		},
	}

	for _, c := range coupons {
		_, err := q.Exec(ctx, `
			INSERT INTO coupons (id, code, discount, discount_type, start_date, end_date, duration)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (code) DO UPDATE SET
				discount      = excluded.discount,
				discount_type = excluded.discount_type,
				start_date    = excluded.start_date,
				end_date      = excluded.end_date,
				duration      = excluded.duration`,
			uuid.New(), c.code, c.discount, c.discountType, c.start, c.end, c.duration)
		if err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}

		slog.Info("upserted coupon", slog.String("code", c.code), slog.String("type", c.discountType))
	}

	return nil
}

func seedCart(ctx context.Context, q postgres.Querier, productIDs []uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}

	slog.Info("filling demo cart")

	_, err := q.Exec(ctx, `
		INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`, demoUserID)
	if err != nil {
		return errors.Wrap(err, "upsert cart")
	}

	for i, id := range productIDs {
		if i >= 3 {
			break
		}
		_, err := q.Exec(ctx, `
			INSERT INTO cart_items (cart_id, product_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = excluded.quantity`,
			demoUserID, id, i+1)
		if err != nil {
			return errors.Wrapf(err, "upsert cart item %s", id)
		}
	}

	return nil
}
