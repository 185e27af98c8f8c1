package model

import "errors"

var (
	// ErrConfigMissing is fatal and raised before any network call.
	ErrConfigMissing = errors.New("config missing")
	// ErrSupplierUnavailable aborts the run.
	ErrSupplierUnavailable = errors.New("supplier unavailable")
	// ErrSkuNotFound is recorded per item.
	ErrSkuNotFound = errors.New("sku not found")
	// ErrUpdateRejected is recorded per item.
	ErrUpdateRejected = errors.New("update rejected")
)
