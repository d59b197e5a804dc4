package downloader

import "errors"

// Download errors.
var (
	ErrUnknownModel       = errors.New("downloader: unknown model")
	ErrInsufficientSpace  = errors.New("downloader: insufficient disk space")
	ErrManifestFailed     = errors.New("downloader: failed to fetch file manifest")
	ErrTransferFailed     = errors.New("downloader: file transfer failed")
	ErrChecksumMismatch   = errors.New("downloader: file checksum mismatch")
	ErrNotDownloaded      = errors.New("downloader: model is not downloaded")
	ErrDownloadInProgress = errors.New("downloader: download already in progress")
)
