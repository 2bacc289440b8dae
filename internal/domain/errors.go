package domain

import (
	"fmt"
	"strings"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrInvalidIndexStatus   = NewDomainError(ErrCodeValidation, "invalid index status")
	ErrInvalidChunkJob      = NewDomainError(ErrCodeValidation, "invalid chunk job")
	ErrMissingDocumentID    = NewDomainError(ErrCodeValidation, "documentId is required")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document record not found")
	ErrChunkJobNotFound = NewDomainError(ErrCodeNotFound, "chunk job not found")
)

// Already exists errors
var (
	ErrDocumentAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "document record already exists")
)

// Operation errors
var (
	ErrDocumentNotUploaded  = NewDomainError(ErrCodeInvalidOperation, "document content has not been uploaded")
	ErrStorageOperationFail = NewDomainError(ErrCodeInternalError, "storage operation failed")
)

// MissingFieldsError reports which required chunk-event fields were absent.
// The message lists every missing field name so pipeline operators can see
// the full shortfall in one failure.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// NewMissingFieldsError creates a MissingFieldsError for the given field names.
func NewMissingFieldsError(fields ...string) *MissingFieldsError {
	return &MissingFieldsError{Fields: fields}
}

// ChunkFetchError reports a chunk blob that could not be read from storage.
type ChunkFetchError struct {
	Bucket string
	Key    string
}

func (e *ChunkFetchError) Error() string {
	return fmt.Sprintf("S3 GetObject returned empty body. s3://%s/%s", e.Bucket, e.Key)
}

// NewChunkFetchError creates a ChunkFetchError naming the bucket and key.
func NewChunkFetchError(bucket, key string) *ChunkFetchError {
	return &ChunkFetchError{Bucket: bucket, Key: key}
}
