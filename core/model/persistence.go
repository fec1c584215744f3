package model

import (
	"bytes"
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

// SaveModel は値を gob でファイルに保存する
//
//	err := model.SaveModel(snapshot, "pipeline.gob")
func SaveModel(v interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer file.Close()
	return SaveModelToWriter(v, file)
}

// LoadModel はファイルから gob を読み込む。v はポインタであること。
func LoadModel(v interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()
	return LoadModelFromReader(v, file)
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(v interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
func LoadModelFromReader(v interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(v); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}

// EncodeGob is SaveModelToWriter into a byte slice.
func EncodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := SaveModelToWriter(v, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeGob is LoadModelFromReader from a byte slice.
func DecodeGob(data []byte, v interface{}) error {
	return LoadModelFromReader(v, bytes.NewReader(data))
}
