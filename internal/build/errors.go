package build

import (
	"errors"
	"io/fs"
	"os"

	ferrors "git.home.luguber.info/inful/sssg/internal/foundation/errors"
)

// readSource reads a source file. A file that vanished is reported as
// source_missing so callers can skip it; anything else is an IO failure.
func readSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	return nil, classifyFSError(err, "read source", path)
}

func classifyFSError(err error, op, path string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ferrors.WrapError(err, ferrors.CategorySourceMissing, "source file vanished").
			Warning().
			WithContext("path", path).
			Build()
	}
	return ferrors.WrapError(err, ferrors.CategoryIO, op).
		Fatal().
		WithContext("path", path).
		Build()
}

func ioError(err error, op, path string) error {
	return ferrors.WrapError(err, ferrors.CategoryIO, op).
		Fatal().
		WithContext("path", path).
		Build()
}

// IsSourceMissing reports whether err means a source file disappeared.
func IsSourceMissing(err error) bool {
	return ferrors.HasCategory(err, ferrors.CategorySourceMissing)
}
