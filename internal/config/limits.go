package config

const (
	// MaxFolderNameLength is the maximum length for folder names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxFolderNameLength = 255

	// MaxFileNameLength is the maximum length for file display names.
	// Same as folder names for consistency.
	MaxFileNameLength = 255

	// MaxBatchIDs caps the ids accepted by a single listFilesByIds call.
	MaxBatchIDs = 500

	// DefaultMaxUploadBytes is used when MAX_UPLOAD_BYTES is not set (32 MiB).
	DefaultMaxUploadBytes = 32 << 20
)
