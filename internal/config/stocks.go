package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/seenimoa/stockinsight/pkg/models"
)

// StockEnvPrefix marks an instrument variable: STOCK_<NAME>=<CODE>.
const StockEnvPrefix = "STOCK_"

// StocksFromEnv extracts instruments from KEY=VALUE pairs such as os.Environ().
// Entries with an empty name or code are skipped. The result is sorted by name.
func StocksFromEnv(environ []string) []models.Stock {
	var stocks []models.Stock
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, StockEnvPrefix) {
			continue
		}
		name := strings.TrimPrefix(key, StockEnvPrefix)
		code := strings.TrimSpace(value)
		if name == "" || code == "" {
			continue
		}
		stocks = append(stocks, models.Stock{Name: name, Code: code})
	}
	sortStocks(stocks)
	return stocks
}

// MergeStocks combines instrument lists. A later entry with the same name
// replaces an earlier one. The result is sorted by name.
func MergeStocks(lists ...[]models.Stock) []models.Stock {
	byName := make(map[string]models.Stock)
	for _, list := range lists {
		for _, s := range list {
			if s.Code == "" {
				continue
			}
			if s.Name == "" {
				s.Name = s.Code
			}
			byName[s.Name] = s
		}
	}
	out := make([]models.Stock, 0, len(byName))
	for _, s := range byName {
		out = append(out, s)
	}
	sortStocks(out)
	return out
}

func sortStocks(stocks []models.Stock) {
	sort.Slice(stocks, func(i, j int) bool { return stocks[i].Name < stocks[j].Name })
}

// ParseStockArg parses a command-line instrument, either "NAME=CODE" or a bare
// code. A bare code takes its name from known when listed there.
func ParseStockArg(arg string, known []models.Stock) (models.Stock, error) {
	arg = strings.TrimSpace(arg)
	if name, code, ok := strings.Cut(arg, "="); ok {
		name, code = strings.TrimSpace(name), strings.TrimSpace(code)
		if name == "" || code == "" {
			return models.Stock{}, fmt.Errorf("config: invalid instrument %q, want NAME=CODE", arg)
		}
		return models.Stock{Name: name, Code: code}, nil
	}
	if arg == "" {
		return models.Stock{}, errors.New("config: empty instrument")
	}
	return models.Stock{Name: StockName(known, arg), Code: arg}, nil
}

// StockName returns the configured name for code, or code itself.
func StockName(stocks []models.Stock, code string) string {
	for _, s := range stocks {
		if strings.EqualFold(s.Code, code) {
			return s.Name
		}
	}
	return code
}

// ReadStocks returns the instruments listed in the .env file at path.
// A missing file yields no instruments.
func ReadStocks(path string) ([]models.Stock, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	pairs := make([]string, 0, len(env))
	for k, v := range env {
		pairs = append(pairs, k+"="+v)
	}
	return StocksFromEnv(pairs), nil
}

// SaveStocks rewrites the STOCK_ entries of the .env file at path, keeping
// every other variable. The file is created when missing.
func SaveStocks(path string, stocks []models.Stock) error {
	env, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
		env = make(map[string]string)
	}
	for key := range env {
		if strings.HasPrefix(key, StockEnvPrefix) {
			delete(env, key)
		}
	}
	for _, s := range stocks {
		env[StockEnvPrefix+s.Name] = s.Code
	}
	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
