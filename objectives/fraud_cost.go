package objectives

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

const FraudCostName = "Fraud Cost"

func init() {
	Register(FraudCostName, func(p model.Parameters) (Objective, error) { return NewFraudCost(p) })
}

// FraudCost scores a binary fraud detector by the money it loses, as a
// fraction of the total transaction amount. Missed fraud costs the
// transaction amount times FraudPayoutPercentage; a false alarm loses the
// interchange fee on the part of the amount the retailer does not cover.
type FraudCost struct {
	RetailerFraudPercentage float64
	InterchangeFee          float64
	FraudPayoutPercentage   float64
	// AmountCol is the column of X holding the transaction amount.
	AmountCol int
}

// NewFraudCost reads retailer_fraud_percentage (default 1.0),
// interchange_fee (0.02), fraud_payout_percentage (1.0) and amount_col (0).
func NewFraudCost(params model.Parameters) (*FraudCost, error) {
	f := &FraudCost{}
	var err error
	if f.RetailerFraudPercentage, err = params.Float("retailer_fraud_percentage", 1.0); err != nil {
		return nil, errors.NewValidationError("retailer_fraud_percentage", err.Error(), params["retailer_fraud_percentage"])
	}
	if f.InterchangeFee, err = params.Float("interchange_fee", 0.02); err != nil {
		return nil, errors.NewValidationError("interchange_fee", err.Error(), params["interchange_fee"])
	}
	if f.FraudPayoutPercentage, err = params.Float("fraud_payout_percentage", 1.0); err != nil {
		return nil, errors.NewValidationError("fraud_payout_percentage", err.Error(), params["fraud_payout_percentage"])
	}
	if f.AmountCol, err = params.Int("amount_col", 0); err != nil || f.AmountCol < 0 {
		return nil, errors.NewValidationError("amount_col", "must be a non-negative column index", params["amount_col"])
	}
	return f, nil
}

func (f *FraudCost) Name() string                      { return FraudCostName }
func (f *FraudCost) GreaterIsBetter() bool             { return false }
func (f *FraudCost) ScoreNeedsProba() bool             { return false }
func (f *FraudCost) ProblemTypes() []model.ProblemType { return binaryTypes }

func (f *FraudCost) Parameters() model.Parameters {
	return model.Parameters{
		"retailer_fraud_percentage": f.RetailerFraudPercentage,
		"interchange_fee":           f.InterchangeFee,
		"fraud_payout_percentage":   f.FraudPayoutPercentage,
		"amount_col":                f.AmountCol,
	}
}

// ObjectiveFunction は取引総額あたりの損失額を返す（1 が不正）
func (f *FraudCost) ObjectiveFunction(yTrue, yPred *mat.VecDense, _ *mat.Dense, X mat.Matrix) (float64, error) {
	if X == nil {
		return 0, errors.NewValueError(FraudCostName, "objective needs X for the transaction amounts")
	}
	r, c := X.Dims()
	if f.AmountCol >= c {
		return 0, errors.NewValidationError("amount_col", "column index out of range", f.AmountCol)
	}
	if yTrue.Len() != r || yPred.Len() != r {
		return 0, errors.NewDimensionError("FraudCost.ObjectiveFunction", r, yPred.Len(), 0)
	}

	var loss, total float64
	for i := 0; i < r; i++ {
		amount := X.At(i, f.AmountCol)
		total += amount
		fraud, flagged := yTrue.AtVec(i) == 1, yPred.AtVec(i) == 1
		switch {
		case fraud && !flagged:
			loss += amount * f.FraudPayoutPercentage
		case !fraud && flagged:
			loss += amount * (1 - f.RetailerFraudPercentage) * f.InterchangeFee
		}
	}
	if total == 0 {
		return 0, errors.NewValueError(FraudCostName, "total transaction amount is zero")
	}
	return loss / total, nil
}
