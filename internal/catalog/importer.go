package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

// CSV column headers of the source dataset.
const (
	colCompany           = "Company Name"
	colModel             = "Model Name"
	colProcessor         = "Processor"
	colLaunchedYear      = "Launched Year"
	colUserRating        = "User Rating.1"
	colUserReview        = "User Review.1"
	colCameraRating      = "User Camera Rating"
	colBatteryRating     = "User Battery Life Rating"
	colDesignRating      = "User Design Rating"
	colDisplayRating     = "User Display Rating"
	colPerformanceRating = "User Performance Rating"
	colMemory            = "Memory (GB)"
	colWeight            = "Mobile Weight (g)"
	colRAM               = "RAM (GB)"
	colFrontCamera       = "Front Camera (MP)"
	colBackCamera        = "Back Camera (MP)"
	colBattery           = "Battery Capacity (mAh)"
	colPrice             = "Launched Price (INR)"
	colScreenSize        = "Screen Size (inches)"
)

var requiredColumns = []string{colCompany, colModel, colPrice}

// ImportResult counts imported and rejected rows.
type ImportResult struct {
	Imported int `json:"imported"`
	Errors   int `json:"errors"`
}

// Importer loads the phone dataset into a catalog writer.
type Importer struct {
	writer    Writer
	validate  *validator.Validate
	batchSize int
}

func NewImporter(w Writer) *Importer {
	return &Importer{writer: w, validate: validator.New(), batchSize: 200}
}

// ImportCSV reads the dataset from r. Rows that fail parsing or validation
// are counted and skipped. When clear is set the catalog is emptied first.
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader, clear bool) (ImportResult, error) {
	var res ImportResult

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return res, fmt.Errorf("read csv header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return res, fmt.Errorf("csv missing column %q", c)
		}
	}

	if clear {
		if err := im.writer.Clear(ctx); err != nil {
			return res, fmt.Errorf("clear catalog: %w", err)
		}
		logx.Info().Msg("catalog cleared before import")
	}

	batch := make([]model.Phone, 0, im.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := im.writer.InsertPhones(ctx, batch)
		if err != nil {
			return err
		}
		res.Imported += n
		batch = batch[:0]
		return nil
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			res.Errors++
			logx.Warn().Err(err).Int("line", line).Msg("skipping unreadable csv row")
			continue
		}

		p, err := im.parseRow(rec, idx)
		if err != nil {
			res.Errors++
			logx.Warn().Err(err).Int("line", line).Msg("skipping invalid phone row")
			continue
		}
		batch = append(batch, p)
		if len(batch) >= im.batchSize {
			if err := flush(); err != nil {
				return res, fmt.Errorf("insert batch: %w", err)
			}
		}
	}
	if err := flush(); err != nil {
		return res, fmt.Errorf("insert batch: %w", err)
	}

	logx.Info().Int("imported", res.Imported).Int("errors", res.Errors).Msg("catalog import finished")
	return res, nil
}

func (im *Importer) parseRow(rec []string, idx map[string]int) (model.Phone, error) {
	get := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	price := parseInt(get(colPrice))
	if price == nil {
		return model.Phone{}, fmt.Errorf("invalid price %q", get(colPrice))
	}

	p := model.Phone{
		CompanyName:       get(colCompany),
		ModelName:         get(colModel),
		Processor:         get(colProcessor),
		LaunchedYear:      parseInt(get(colLaunchedYear)),
		UserRating:        parseFloat(get(colUserRating)),
		UserReview:        get(colUserReview),
		CameraRating:      parseFloat(get(colCameraRating)),
		BatteryRating:     parseFloat(get(colBatteryRating)),
		DesignRating:      parseFloat(get(colDesignRating)),
		DisplayRating:     parseFloat(get(colDisplayRating)),
		PerformanceRating: parseFloat(get(colPerformanceRating)),
		MemoryGB:          derefInt(parseInt(get(colMemory))),
		WeightG:           parseOptionalFloat(get(colWeight)),
		RAMGB:             parseFloat(get(colRAM)),
		FrontCameraMP:     parseFloat(get(colFrontCamera)),
		BackCameraMP:      parseFloat(get(colBackCamera)),
		BatteryMAH:        derefInt(parseInt(get(colBattery))),
		PriceINR:          *price,
		ScreenSize:        parseFloat(get(colScreenSize)),
	}

	if err := im.validate.Struct(p); err != nil {
		return model.Phone{}, err
	}
	return p, nil
}

var numberCleaner = strings.NewReplacer(",", "", "₹", "", "INR", "", " ", "")

// parseInt returns nil for empty or non-numeric input. Decimal values are truncated.
func parseInt(s string) *int {
	s = numberCleaner.Replace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	n := int(f)
	return &n
}

// parseFloat returns 0 for empty or non-numeric input.
func parseFloat(s string) float64 {
	if f := parseOptionalFloat(s); f != nil {
		return *f
	}
	return 0
}

func parseOptionalFloat(s string) *float64 {
	s = numberCleaner.Replace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
