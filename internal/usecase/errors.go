package usecase

import "fmt"

type ErrorCode string

const (
	ErrorConfig       ErrorCode = "CONFIG_ERROR"
	ErrorIngestion    ErrorCode = "INGESTION_ERROR"
	ErrorRetrieval    ErrorCode = "RETRIEVAL_ERROR"
	ErrorGeneration   ErrorCode = "GENERATION_ERROR"
	ErrorHistory      ErrorCode = "HISTORY_ERROR"
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
)

// Pipeline stages, recorded on errors for logging.
const (
	StageHistoryLoad   = "history_load"
	StageCondense      = "condense"
	StageRetrieve      = "retrieve"
	StageAnswer        = "answer"
	StageHistoryAppend = "history_append"
)

// Error is a stage-tagged pipeline error.
type Error struct {
	Code  ErrorCode
	Stage string
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Stage)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, stage string, err error) *Error {
	return &Error{Code: code, Stage: stage, Err: err}
}
