package reporting

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"repeat-purchase-lab/internal/domain"
	"repeat-purchase-lab/internal/scoring"
	"repeat-purchase-lab/internal/tabular"
)

// Feature CSV columns.
const (
	ColCustomerID     = "customer_id"
	ColLastOrderDate  = "last_order_date"
	ColFirstOrderDate = "first_order_date"
	ColLabel          = "label"
	ColProba          = "proba"
	ColDecile         = "decile"
)

// FeatureColumns is the feature CSV header.
var FeatureColumns = []string{
	ColCustomerID, ColLastOrderDate, ColFirstOrderDate,
	domain.FeatureOrders, domain.FeatureMonetary, domain.FeatureAvgDiscount,
	domain.FeatureCategoryDiversity, domain.FeatureRecencyDays, domain.FeatureTenureDays,
	domain.FeatureReturnRate,
}

// LabelColumns is the label CSV header.
var LabelColumns = []string{ColCustomerID, ColLabel}

// ScoredColumns is the scored-output CSV header.
var ScoredColumns = []string{ColCustomerID, ColProba, ColDecile}

// HoldoutColumns is the holdout evaluation CSV header.
var HoldoutColumns = append(append([]string{ColCustomerID}, domain.FeatureNames...), ColLabel, ColProba, ColDecile)

// WriteFeatures writes the feature table.
func WriteFeatures(w io.Writer, feats []domain.CustomerFeatures) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(FeatureColumns); err != nil {
		return err
	}
	for _, f := range feats {
		err := cw.Write([]string{
			f.CustomerID,
			f.LastOrderDate.Format(domain.DateLayout),
			f.FirstOrderDate.Format(domain.DateLayout),
			strconv.Itoa(f.OrderCount),
			tabular.FormatFloat(f.MonetaryTotal),
			tabular.FormatFloat(f.AvgDiscountRate),
			strconv.Itoa(f.CategoryDiversity),
			strconv.Itoa(f.RecencyDays),
			strconv.Itoa(f.TenureDays),
			tabular.FormatFloat(f.ReturnRate),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadFeatures reads a feature table. Dates are required; an empty numeric
// cell is a missing value and reads as 0.
func ReadFeatures(r io.Reader) ([]domain.CustomerFeatures, error) {
	tr, err := tabular.NewReader("features", r, FeatureColumns)
	if err != nil {
		return nil, err
	}

	var out []domain.CustomerFeatures
	for {
		if err := tr.Next(); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}

		var f domain.CustomerFeatures
		if f.CustomerID, err = tr.Required(ColCustomerID); err != nil {
			return nil, err
		}
		if f.LastOrderDate, err = tr.Date(ColLastOrderDate); err != nil {
			return nil, err
		}
		if f.FirstOrderDate, err = tr.Date(ColFirstOrderDate); err != nil {
			return nil, err
		}
		if f.OrderCount, err = tr.IntOrZero(domain.FeatureOrders); err != nil {
			return nil, err
		}
		if f.MonetaryTotal, err = tr.FloatOrZero(domain.FeatureMonetary); err != nil {
			return nil, err
		}
		if f.AvgDiscountRate, err = tr.FloatOrZero(domain.FeatureAvgDiscount); err != nil {
			return nil, err
		}
		if f.CategoryDiversity, err = tr.IntOrZero(domain.FeatureCategoryDiversity); err != nil {
			return nil, err
		}
		if f.RecencyDays, err = tr.IntOrZero(domain.FeatureRecencyDays); err != nil {
			return nil, err
		}
		if f.TenureDays, err = tr.IntOrZero(domain.FeatureTenureDays); err != nil {
			return nil, err
		}
		if f.ReturnRate, err = tr.FloatOrZero(domain.FeatureReturnRate); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
}

// WriteLabels writes the label table.
func WriteLabels(w io.Writer, labels []domain.LabelRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(LabelColumns); err != nil {
		return err
	}
	for _, l := range labels {
		if err := cw.Write([]string{l.CustomerID, strconv.Itoa(l.Label)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadLabels reads a label table. Labels must be 0 or 1.
func ReadLabels(r io.Reader) ([]domain.LabelRecord, error) {
	tr, err := tabular.NewReader("labels", r, LabelColumns)
	if err != nil {
		return nil, err
	}

	var out []domain.LabelRecord
	for {
		if err := tr.Next(); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}

		var l domain.LabelRecord
		if l.CustomerID, err = tr.Required(ColCustomerID); err != nil {
			return nil, err
		}
		if l.Label, err = tr.Int(ColLabel); err != nil {
			return nil, err
		}
		if l.Label != 0 && l.Label != 1 {
			return nil, tr.Invalid(ColLabel, "label must be 0 or 1")
		}
		out = append(out, l)
	}
}

// WriteScored writes scored customers in ascending rank order.
func WriteScored(w io.Writer, scored []domain.ScoredCustomer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ScoredColumns); err != nil {
		return err
	}
	for _, s := range scoring.SortByRank(scored) {
		err := cw.Write([]string{
			s.CustomerID,
			tabular.FormatFloat(s.Probability),
			strconv.Itoa(s.Decile),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHoldout writes the holdout evaluation rows in the given order.
func WriteHoldout(w io.Writer, rows []domain.HoldoutRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(HoldoutColumns); err != nil {
		return err
	}
	for _, h := range rows {
		rec := make([]string, 0, len(HoldoutColumns))
		rec = append(rec, h.CustomerID)
		for _, v := range h.Features {
			rec = append(rec, tabular.FormatFloat(v))
		}
		rec = append(rec,
			strconv.Itoa(h.Label),
			tabular.FormatFloat(h.Probability),
			strconv.Itoa(h.Decile),
		)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates path (and its directory) and fills it with write.
func WriteFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadFile opens path and passes it to read.
// A missing file is reported as *domain.MissingArtifactError.
func ReadFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return zero, &domain.MissingArtifactError{Path: path, Err: err}
		}
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return read(f)
}
