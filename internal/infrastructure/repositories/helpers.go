package repositories

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
)

// translateErr maps driver errors onto domain sentinels. The DB must be opened
// with TranslateError for duplicate keys to be recognised.
func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainerrors.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domainerrors.ErrAlreadyExists
	}
	return err
}

func countByStatus(db *gorm.DB, model interface{}, column string) (map[string]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	if err := db.Model(model).
		Select(column + " AS status, COUNT(*) AS total").
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Total
	}
	return out, nil
}

func completedTotals(db *gorm.DB, model interface{}, amountColumn string) (entities.PaymentTotals, error) {
	var (
		count int64
		sum   decimal.NullDecimal
	)
	if err := db.Model(model).
		Select("COUNT(*), SUM("+amountColumn+")").
		Where("status = ?", string(entities.PaymentStatusCompleted)).
		Row().Scan(&count, &sum); err != nil {
		return entities.PaymentTotals{}, err
	}
	totals := entities.PaymentTotals{Count: count, Sum: decimal.Zero}
	if sum.Valid {
		totals.Sum = sum.Decimal.Round(2)
	}
	return totals, nil
}
