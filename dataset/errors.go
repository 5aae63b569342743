package dataset

import "errors"

var (
	ErrDataSetNotFound = errors.New("data set not found")
	ErrUnknownColumn   = errors.New("unknown column")
)
