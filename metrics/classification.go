package metrics

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/goautoml/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// logLossEps clips probabilities away from 0 and 1.
const logLossEps = 1e-15

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 || yPred.Len() == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

func checkBinaryLabels(op string, yTrue *mat.VecDense) error {
	for i := 0; i < yTrue.Len(); i++ {
		if v := yTrue.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError(op, "labels must be 0 or 1")
		}
	}
	return nil
}

// AUC は ROC 曲線下面積を計算する
//
// Mann-Whitney U 統計量で求める。同順位には平均順位を与える。
// 片方のクラスしか無い場合は 0.5 を返す。
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels("AUC", yTrue); err != nil {
		return 0, err
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return yScore.AtVec(idx[a]) < yScore.AtVec(idx[b])
	})

	var rankSumPos float64
	var nPos, nNeg int
	for i := 0; i < n; {
		j := i
		for j+1 < n && yScore.AtVec(idx[j+1]) == yScore.AtVec(idx[i]) {
			j++
		}
		// 順位は 1 始まり
		avgRank := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			if yTrue.AtVec(idx[k]) == 1 {
				rankSumPos += avgRank
				nPos++
			} else {
				nNeg++
			}
		}
		i = j + 1
	}

	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("AUC", "only one class present in yTrue", 0.5))
		return 0.5, nil
	}
	u := rankSumPos - float64(nPos)*float64(nPos+1)/2
	return u / (float64(nPos) * float64(nNeg)), nil
}

// BinaryLogLoss は二値分類の交差エントロピーを計算する
// yProb は陽性クラス (1) の確率。
func BinaryLogLoss(yTrue, yProb *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yProb)
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		p := errors.ClipValue(yProb.AtVec(i), logLossEps, 1-logLossEps)
		if yTrue.AtVec(i) == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}

// MulticlassLogLoss computes cross-entropy for labels encoded 0..k-1 against
// an n×k probability matrix. Rows are renormalised after clipping.
func MulticlassLogLoss(yTrue *mat.VecDense, proba mat.Matrix) (float64, error) {
	if yTrue == nil || yTrue.Len() == 0 || proba == nil {
		return 0, errors.NewValueError("MulticlassLogLoss", "empty input")
	}
	n := yTrue.Len()
	rows, k := proba.Dims()
	if rows != n {
		return 0, errors.NewDimensionError("MulticlassLogLoss", n, rows, 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		label := int(yTrue.AtVec(i))
		if label < 0 || label >= k || float64(label) != yTrue.AtVec(i) {
			return 0, errors.NewValueError("MulticlassLogLoss", "labels must be encoded as 0..k-1")
		}
		var rowSum, target float64
		for c := 0; c < k; c++ {
			p := errors.ClipValue(proba.At(i, c), logLossEps, 1-logLossEps)
			rowSum += p
			if c == label {
				target = p
			}
		}
		sum -= math.Log(target / rowSum)
	}
	return sum / float64(n), nil
}

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// BalancedAccuracy is the mean per-class recall over the classes present in
// yTrue.
func BalancedAccuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("BalancedAccuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	support := make(map[float64]int)
	hits := make(map[float64]int)
	for i := 0; i < n; i++ {
		c := yTrue.AtVec(i)
		support[c]++
		if yPred.AtVec(i) == c {
			hits[c]++
		}
	}
	var sum float64
	for c, s := range support {
		sum += float64(hits[c]) / float64(s)
	}
	return sum / float64(len(support)), nil
}

// binaryCounts returns tp, fp, fn with 1 as the positive label.
func binaryCounts(yTrue, yPred *mat.VecDense, n int) (tp, fp, fn float64) {
	for i := 0; i < n; i++ {
		actual, predicted := yTrue.AtVec(i) == 1, yPred.AtVec(i) == 1
		switch {
		case actual && predicted:
			tp++
		case !actual && predicted:
			fp++
		case actual && !predicted:
			fn++
		}
	}
	return tp, fp, fn
}

func undefined(metric, condition string) float64 {
	errors.Warn(errors.NewUndefinedMetricWarning(metric, condition, 0))
	return 0
}

// Precision は適合率 tp/(tp+fp) を計算する（陽性ラベルは 1）
func Precision(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Precision", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	tp, fp, _ := binaryCounts(yTrue, yPred, n)
	if tp+fp == 0 {
		return undefined("Precision", "no predicted samples"), nil
	}
	return tp / (tp + fp), nil
}

// Recall は再現率 tp/(tp+fn) を計算する（陽性ラベルは 1）
func Recall(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Recall", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	tp, _, fn := binaryCounts(yTrue, yPred, n)
	if tp+fn == 0 {
		return undefined("Recall", "no true samples"), nil
	}
	return tp / (tp + fn), nil
}

// F1 is the harmonic mean of Precision and Recall.
func F1(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("F1", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	tp, fp, fn := binaryCounts(yTrue, yPred, n)
	if 2*tp+fp+fn == 0 {
		return undefined("F1", "no true nor predicted samples"), nil
	}
	return 2 * tp / (2*tp + fp + fn), nil
}
