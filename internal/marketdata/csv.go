package marketdata

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
)

type priceRow struct {
	Date   string  `csv:"date"`
	Symbol string  `csv:"symbol"`
	Price  float64 `csv:"price"`
}

type factorRow struct {
	Date   string  `csv:"date"`
	Factor string  `csv:"factor"`
	Return float64 `csv:"return"`
}

// LoadPricesCSV reads date,symbol,price rows.
func LoadPricesCSV(path string) ([]AssetPrice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open prices csv: %w", err)
	}
	defer f.Close()

	rows := []priceRow{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse prices csv %s: %w", path, err)
	}

	out := make([]AssetPrice, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(time.DateOnly, row.Date)
		if err != nil {
			return nil, fmt.Errorf("bad date %q in prices csv: %w", row.Date, err)
		}
		out = append(out, AssetPrice{
			Symbol: row.Symbol,
			Date:   date,
			Price:  row.Price,
		})
	}
	return out, nil
}

// LoadFactorsCSV reads date,factor,return rows.
func LoadFactorsCSV(path string) ([]FactorReturn, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open factors csv: %w", err)
	}
	defer f.Close()

	rows := []factorRow{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse factors csv %s: %w", path, err)
	}

	out := make([]FactorReturn, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(time.DateOnly, row.Date)
		if err != nil {
			return nil, fmt.Errorf("bad date %q in factors csv: %w", row.Date, err)
		}
		out = append(out, FactorReturn{
			Factor: row.Factor,
			Date:   date,
			Return: row.Return,
		})
	}
	return out, nil
}
