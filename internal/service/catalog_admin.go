package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"invoice-desk/internal/apiclient"
	"invoice-desk/internal/models"
	"invoice-desk/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	importLockKey = "catalog-import"
	importLockTTL = 2 * time.Minute
)

// ErrInvalidItem is returned for item input missing a name or with negative values
var ErrInvalidItem = errors.New("item needs a name, a price and a stock, none negative")

// ErrInvalidCSV is returned when an import file has no usable header
var ErrInvalidCSV = errors.New("invalid csv")

// ValidateItem checks catalog write input
func ValidateItem(in models.ProductInput) error {
	if strings.TrimSpace(in.Name) == "" || in.Price.IsNegative() || in.Stock < 0 {
		return ErrInvalidItem
	}
	return nil
}

// AddOrMergeItem creates an item, or when one with the same name exists
// (trimmed, case-insensitive) adds the stock to it and replaces its price.
func (s *DeskService) AddOrMergeItem(ctx context.Context, d *Desk, in models.ProductInput) (*models.Product, bool, error) {
	ctx, span := util.StartSpan(ctx, "DeskService.AddOrMergeItem")
	defer span.End()

	if err := ValidateItem(in); err != nil {
		return nil, false, err
	}

	items, err := s.remote.ListItems(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list items: %w", err)
	}

	p, merged, err := s.addOrMerge(ctx, indexByName(items), in)
	if err != nil {
		return nil, false, err
	}

	s.refreshCatalog(ctx, d)
	return p, merged, nil
}

func (s *DeskService) addOrMerge(ctx context.Context, byName map[string]models.Product, in models.ProductInput) (*models.Product, bool, error) {
	key := nameKey(in.Name)

	if existing, ok := byName[key]; ok {
		updated, err := s.remote.UpdateItem(ctx, existing.ID, models.ProductInput{
			Name:  existing.Name,
			Price: in.Price,
			Stock: existing.Stock + in.Stock,
		})
		if err != nil {
			return nil, false, err
		}
		byName[key] = *updated
		return updated, true, nil
	}

	created, err := s.remote.CreateItem(ctx, models.ProductInput{
		Name:  strings.TrimSpace(in.Name),
		Price: in.Price,
		Stock: in.Stock,
	})
	if err != nil {
		return nil, false, err
	}
	byName[key] = *created
	return created, false, nil
}

// UpdateItem replaces an item's fields
func (s *DeskService) UpdateItem(ctx context.Context, d *Desk, id int64, in models.ProductInput) (*models.Product, error) {
	if err := ValidateItem(in); err != nil {
		return nil, err
	}
	p, err := s.remote.UpdateItem(ctx, id, in)
	if apiclient.IsNotFound(err) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	s.refreshCatalog(ctx, d)
	return p, nil
}

// DeleteItem removes an item
func (s *DeskService) DeleteItem(ctx context.Context, d *Desk, id int64) error {
	err := s.remote.DeleteItem(ctx, id)
	if apiclient.IsNotFound(err) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}
	s.refreshCatalog(ctx, d)
	return nil
}

// ImportResult reports what an import did
type ImportResult struct {
	Created int      `json:"created"`
	Merged  int      `json:"merged"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// ImportCSV adds or merges every complete name,price,stock row of r. The
// first row is a header naming the columns in any order. Incomplete or
// unparsable rows are skipped; a failing remote call is recorded and the
// import carries on.
func (s *DeskService) ImportCSV(ctx context.Context, d *Desk, r io.Reader) (*ImportResult, error) {
	ctx, span := util.StartSpan(ctx, "DeskService.ImportCSV")
	defer span.End()

	if s.locker != nil {
		ok, err := s.locker.AcquireLock(ctx, importLockKey, importLockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire import lock: %w", err)
		}
		if !ok {
			return nil, ErrImportInProgress
		}
		defer func() {
			if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), importLockKey); err != nil {
				s.logger.Warn("Failed to release import lock", zap.Error(err))
			}
		}()
	}

	rows, err := parseItemRows(r)
	if err != nil {
		return nil, err
	}

	items, err := s.remote.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	byName := indexByName(items)

	result := &ImportResult{}
	for _, row := range rows {
		if row.err != nil {
			result.Skipped++
			continue
		}

		_, merged, err := s.addOrMerge(ctx, byName, row.input)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %s", row.line, apiclient.MessageOf(err, err.Error())))
			continue
		}
		if merged {
			result.Merged++
		} else {
			result.Created++
		}
	}

	s.logger.Info("Catalog import finished",
		zap.Int("created", result.Created),
		zap.Int("merged", result.Merged),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)))

	s.refreshCatalog(ctx, d)
	return result, nil
}

type itemRow struct {
	line  int
	input models.ProductInput
	err   error
}

// zipMagic opens every .xlsx workbook
var zipMagic = []byte("PK\x03\x04")

func parseItemRows(r io.Reader) ([]itemRow, error) {
	br := bufio.NewReader(r)
	if head, _ := br.Peek(len(zipMagic)); bytes.Equal(head, zipMagic) {
		return nil, fmt.Errorf("%w: spreadsheet workbooks are not supported, export the sheet as CSV", ErrInvalidCSV)
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %v", ErrInvalidCSV, err)
	}

	cols := map[string]int{"name": -1, "price": -1, "stock": -1}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, ok := cols[h]; ok {
			cols[h] = i
		}
	}
	for name, idx := range cols {
		if idx < 0 {
			return nil, fmt.Errorf("%w: header is missing the %q column", ErrInvalidCSV, name)
		}
	}

	var rows []itemRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rows = append(rows, itemRow{line: line, err: err})
			continue
		}

		field := func(col string) string {
			idx := cols[col]
			if idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		row := itemRow{line: line}
		name, price, stock := field("name"), field("price"), field("stock")
		if name == "" || price == "" || stock == "" {
			row.err = errors.New("incomplete row")
			rows = append(rows, row)
			continue
		}

		p, perr := decimal.NewFromString(price)
		q, qerr := strconv.Atoi(stock)
		if perr != nil || qerr != nil {
			row.err = errors.New("unparsable price or stock")
			rows = append(rows, row)
			continue
		}

		row.input = models.ProductInput{Name: name, Price: p, Stock: q}
		row.err = ValidateItem(row.input)
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *DeskService) refreshCatalog(ctx context.Context, d *Desk) {
	if d == nil {
		return
	}
	if _, err := d.Catalog.Load(ctx); err != nil {
		s.logger.Warn("Catalog refresh after write failed", zap.Error(err))
	}
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func indexByName(items []models.Product) map[string]models.Product {
	byName := make(map[string]models.Product, len(items))
	for _, p := range items {
		key := nameKey(p.Name)
		if _, dup := byName[key]; !dup {
			byName[key] = p
		}
	}
	return byName
}
