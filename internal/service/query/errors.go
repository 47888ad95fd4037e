package query

import "errors"

var ErrSpotNotFound = errors.New("spot not found")
