package main

import (
	"context"
	"flag"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"bilancio/internal/cli"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

func main() {
	months := flag.Int("months", 3, "months of history to generate, ending with the current one")
	perMonth := flag.Int("per-month", 25, "expense transactions per month")
	seed := flag.Int64("seed", 0, "random seed, 0 draws one from the clock")
	flag.Parse()

	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentSeed)
	cfg := cli.LoadAndValidateConfig(logger)

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	gofakeit.Seed(*seed)
	rng := rand.New(rand.NewSource(*seed))

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx := context.Background()

	owner, err := repo.UserByEmail(ctx, cfg.DefaultUserEmail)
	if err != nil {
		logger.Error("Demo user lookup failed", "error", err, "email", cfg.DefaultUserEmail)
		os.Exit(1)
	}

	categories, err := repo.ListCategories(ctx, owner.ID)
	if err != nil {
		logger.Error("Failed to list categories", "error", err)
		os.Exit(1)
	}
	var incomeCats, expenseCats []core.Category
	for _, c := range categories {
		if c.Type == core.Income {
			incomeCats = append(incomeCats, c)
		} else {
			expenseCats = append(expenseCats, c)
		}
	}
	if len(incomeCats) == 0 || len(expenseCats) == 0 {
		logger.Error("Seed categories missing, run the server once to migrate first")
		os.Exit(1)
	}

	// No broker here. Evaluation still runs inside every mutation, so
	// budgets seeded below end up with honest alert state; the alerts
	// themselves only show up in the log.
	transactions := services.NewTransactionService(repo, nil)
	budgets := services.NewBudgetService(repo, nil)

	now := time.Now()
	var txCount, budgetCount int

	for back := *months - 1; back >= 0; back-- {
		ref := time.Date(now.Year(), now.Month()-time.Month(back), 1, 0, 0, 0, 0, time.UTC)
		month, year := int(ref.Month()), ref.Year()

		n, err := seedBudgets(ctx, repo, budgets, owner.ID, expenseCats, month, year, rng)
		if err != nil {
			logger.Error("Failed to seed budgets", "error", err, "month", month, "year", year)
			os.Exit(1)
		}
		budgetCount += n

		salaryCat := incomeCats[rng.Intn(len(incomeCats))]
		_, err = transactions.Create(ctx, owner.ID, core.Transaction{
			CategoryID:  &salaryCat.ID,
			Type:        core.Income,
			Amount:      price(2600, 3400),
			Date:        core.NewDate(year, month, 1),
			Description: "Salary from " + gofakeit.Company(),
		})
		if err != nil {
			logger.Error("Failed to seed income", "error", err, "month", month, "year", year)
			os.Exit(1)
		}
		txCount++

		for i := 0; i < *perMonth; i++ {
			t := core.Transaction{
				Type:        core.Expense,
				Amount:      price(3, 180),
				Date:        core.NewDate(year, month, rng.Intn(28)+1),
				Description: gofakeit.Sentence(3),
			}
			// Most spending is categorized; the rest lands on the
			// overall bucket only.
			if rng.Intn(6) > 0 {
				cat := expenseCats[rng.Intn(len(expenseCats))]
				t.CategoryID = &cat.ID
			}
			if _, err := transactions.Create(ctx, owner.ID, t); err != nil {
				logger.Error("Failed to seed expense", "error", err, "month", month, "year", year)
				os.Exit(1)
			}
			txCount++
		}

		logger.Info("Seeded month", "month", month, "year", year, "transactions", *perMonth+1)
	}

	logger.Info("Seed complete",
		"owner", owner.Email,
		"months", *months,
		"transactions", txCount,
		"budgets", budgetCount,
		"seed", *seed)
}

// seedBudgets creates an overall budget plus one category budget for the
// given month, unless the month already has budgets from an earlier run.
func seedBudgets(ctx context.Context, repo *storage.SQLiteRepository, budgets *services.BudgetService, ownerID int64, expenseCats []core.Category, month, year int, rng *rand.Rand) (int, error) {
	existing, err := repo.ListBudgets(ctx, ownerID, month, year)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	_, err = budgets.Create(ctx, ownerID, core.Budget{
		Month: month,
		Year:  year,
		Limit: price(900, 1500),
	})
	if err != nil {
		return 0, err
	}

	cat := expenseCats[rng.Intn(len(expenseCats))]
	_, err = budgets.Create(ctx, ownerID, core.Budget{
		CategoryID: &cat.ID,
		Month:      month,
		Year:       year,
		Limit:      price(150, 450),
	})
	if err != nil {
		return 1, err
	}

	return 2, nil
}

func price(min, max float64) core.Money {
	return core.Money{Cents: int64(math.Round(gofakeit.Price(min, max) * 100))}
}
