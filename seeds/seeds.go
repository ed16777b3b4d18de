package seeds

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"github.com/actuallystonmai/user-directory/internal/domain"
)

const batchSize = 500

type Store interface {
	ListUsers(ctx context.Context, q domain.ListQuery) (*domain.ListResult, error)
	InsertUsers(ctx context.Context, users []domain.User) error
	TruncateUsers(ctx context.Context) error
}

// Setup inserts n users named User1..UserN with ages drawn from a fixed-seed
// RNG. Without truncate, a non-empty table is left untouched.
func Setup(ctx context.Context, store Store, n int, truncate bool) error {
	rng := rand.New(rand.NewSource(42))

	if truncate {
		log.Println("[seed] truncating existing data")
		if err := store.TruncateUsers(ctx); err != nil {
			return fmt.Errorf("truncate: %w", err)
		}
	} else {
		res, err := store.ListUsers(ctx, domain.ListQuery{Page: 1})
		if err != nil {
			return fmt.Errorf("check users count: %w", err)
		}
		if res.Total > 0 {
			log.Printf("[seed] database already seeded (%d users), skipping", res.Total)
			return nil
		}
	}

	log.Printf("[seed] inserting %d users", n)
	users := generateUsers(rng, n)
	for start := 0; start < len(users); start += batchSize {
		end := min(start+batchSize, len(users))
		if err := store.InsertUsers(ctx, users[start:end]); err != nil {
			return fmt.Errorf("seed users %d-%d: %w", start+1, end, err)
		}
	}

	log.Println("[seed] seeding complete")
	return nil
}

func generateUsers(rng *rand.Rand, n int) []domain.User {
	users := make([]domain.User, 0, n)
	for i := range n {
		users = append(users, domain.User{
			Name: fmt.Sprintf("User%d", i+1),
			Age:  rng.Intn(48) + 18,
		})
	}
	return users
}
