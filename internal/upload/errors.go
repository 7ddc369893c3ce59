package upload

import (
	"errors"
	"fmt"
	"net/http"
)

// Reason identifies the validation stage that rejected an upload.
type Reason string

const (
	ReasonMissingFile               Reason = "missing_file"
	ReasonMissingFilename           Reason = "missing_filename"
	ReasonMissingExtension          Reason = "missing_extension"
	ReasonInvalidExtension          Reason = "invalid_extension"
	ReasonInvalidDeclaredType       Reason = "invalid_declared_type"
	ReasonEmptyFile                 Reason = "empty_file"
	ReasonFileTooLarge              Reason = "file_too_large"
	ReasonMissingBuffer             Reason = "missing_buffer"
	ReasonUnrecognizedSignature     Reason = "unrecognized_signature"
	ReasonSignatureMismatch         Reason = "signature_mismatch"
	ReasonCorruptContainer          Reason = "corrupt_container"
	ReasonInvalidContainerStructure Reason = "invalid_container_structure"
)

// HTTPStatus maps a reason to the client error status callers should return.
func (r Reason) HTTPStatus() int {
	switch r {
	case ReasonFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case ReasonMissingExtension, ReasonInvalidExtension, ReasonInvalidDeclaredType,
		ReasonUnrecognizedSignature, ReasonSignatureMismatch:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusBadRequest
	}
}

// RejectionError is returned for every failed validation. Every rejection is
// terminal for the upload; the client must send a corrected file.
type RejectionError struct {
	Reason Reason
	Detail string
}

func (e *RejectionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("upload rejected: %s", e.Reason)
	}
	return fmt.Sprintf("upload rejected: %s: %s", e.Reason, e.Detail)
}

func reject(reason Reason, format string, args ...any) error {
	return &RejectionError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the rejection reason from err.
func ReasonOf(err error) (Reason, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej.Reason, true
	}
	return "", false
}
