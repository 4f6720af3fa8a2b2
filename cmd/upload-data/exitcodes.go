package main

import (
	"errors"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/modules/logistics/domain/upload"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
	exitUsage      = 3
	exitDB         = 4
	exitDBWrite    = 5
	exitRowLimit   = 6
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return exitFailure
}

// ingestExitCode maps an ingestion failure onto the exit code contract.
func ingestExitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, upload.ErrUnknownType),
		errors.Is(err, upload.ErrUnsupportedFile),
		errors.Is(err, upload.ErrEmptyFile):
		return exitValidation
	}
	ie, ok := upload.AsIngestError(err)
	if !ok {
		return exitDB
	}
	switch ie.Kind {
	case upload.KindRowLimitExceeded:
		return exitRowLimit
	case upload.KindMissingColumns, upload.KindSource:
		return exitValidation
	case upload.KindStorageWrite:
		return exitDBWrite
	default:
		return exitFailure
	}
}
