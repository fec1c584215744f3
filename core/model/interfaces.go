// Package model defines the contracts shared by learners, components and
// pipelines: problem types, model families, targets, hyperparameters,
// fitted-state tracking and gob persistence helpers.
package model

// StateExporter は学習済み状態をバイト列として書き出し・復元できるモデルのインターフェース。
// パイプラインの保存時に各コンポーネントから呼ばれる。
type StateExporter interface {
	ExportState() ([]byte, error)
	ImportState(data []byte) error
}
