package colornet

import "errors"

// Sentinel errors for colorization model operations.
var (
	// Model file errors
	ErrModelNotFound   = errors.New("colornet: model file not found")
	ErrModelLoadFailed = errors.New("colornet: failed to load model")
	ErrModelCorrupted  = errors.New("colornet: model file is corrupted or invalid")

	// Cluster centre file errors
	ErrInvalidNPY       = errors.New("colornet: invalid .npy file")
	ErrHullShape        = errors.New("colornet: cluster centres must be a 313x2 array")
	ErrUnsupportedDType = errors.New("colornet: unsupported .npy dtype")

	// Inference errors
	ErrNotReady        = errors.New("colornet: model not loaded")
	ErrForwardFailed   = errors.New("colornet: forward pass failed")
	ErrInvalidInput    = errors.New("colornet: invalid luminance plane")
	ErrGoCVNotCompiled = errors.New("colornet: built without gocv support")

	// Download errors
	ErrNoModelSource  = errors.New("colornet: no model base URL configured")
	ErrDownloadFailed = errors.New("colornet: model download failed")

	// Pool errors
	ErrPoolClosed      = errors.New("colornet: network pool is closed")
	ErrAcquireTimeout  = errors.New("colornet: timeout acquiring network from pool")
	ErrInvalidPoolSize = errors.New("colornet: pool size must be positive")
)
