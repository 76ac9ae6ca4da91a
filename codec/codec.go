// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package codec is the value codec used for everything the storage layer
// persists. It is a thin wrapper around the avalanchego linear codec.
package codec

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/codec"
	"github.com/ava-labs/avalanchego/codec/linearcodec"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	// CodecVersion is the current default codec version
	CodecVersion = 0
)

var (
	ErrDecode       = errors.New("failed to decode stored value")
	ErrEncode       = errors.New("failed to encode value")
	ErrWrongVersion = errors.New("wrong codec version")
)

// Codecs do serialization and deserialization
var (
	Codec codec.Manager

	linear linearcodec.Codec
)

func init() {
	linear = linearcodec.NewDefault()
	Codec = codec.NewDefaultManager()

	errs := wrappers.Errs{}
	errs.Add(
		Codec.RegisterCodec(CodecVersion, linear),
	)
	if errs.Errored() {
		panic(errs.Err)
	}
}

// RegisterType registers concrete implementations of interface-typed
// fields. Types must be registered in the same order on every invocation.
func RegisterType(types ...interface{}) error {
	errs := wrappers.Errs{}
	for _, t := range types {
		errs.Add(linear.RegisterType(t))
	}
	return errs.Err
}

// Encode returns the canonical encoding of [v].
func Encode[T any](v T) ([]byte, error) {
	b, err := Codec.Marshal(CodecVersion, &v)
	if err != nil {
		return nil, fmt.Errorf("%w %T: %v", ErrEncode, v, err)
	}
	return b, nil
}

// Decode parses [b] as a T. Any failure wraps [ErrDecode] so that callers
// can tell corrupt storage apart from an absent value.
func Decode[T any](b []byte) (T, error) {
	var v T
	parsedVersion, err := Codec.Unmarshal(b, &v)
	if err != nil {
		return v, fmt.Errorf("%w as %T: %v", ErrDecode, v, err)
	}
	if parsedVersion != CodecVersion {
		return v, fmt.Errorf("%w as %T: %w %d", ErrDecode, v, ErrWrongVersion, parsedVersion)
	}
	return v, nil
}
