// Package upload authenticates untrusted spreadsheet uploads before any
// attempt is made to decode them.
package upload

import (
	"archive/zip"
	"bytes"
	"errors"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// XLSXType is the content type of an Office Open XML workbook.
const XLSXType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// unknownType is what mimetype reports when no signature matches.
const unknownType = "application/octet-stream"

// The xlsx matcher walks zip local headers, so a large stored entry ahead of
// xl/ pushes the signature past mimetype's default 3 KiB window. Sniff the
// whole buffer instead; Policy.MaxBytes bounds it before this stage runs.
func init() {
	mimetype.SetLimit(0)
}

// Upload is the declared metadata and content of one uploaded file.
type Upload struct {
	Filename     string
	DeclaredType string
	Size         int64
	Data         []byte
}

// Policy holds the fixed limits and allow-lists applied to uploads.
type Policy struct {
	MaxBytes          int64
	AllowedExtensions []string // lower-case, with leading dot
	AllowedTypes      []string
	RequiredEntries   []string // archive paths, forward slashes
}

// DefaultPolicy returns the production policy: .xlsx only, 10 MiB.
func DefaultPolicy() Policy {
	return Policy{
		MaxBytes:          10 << 20,
		AllowedExtensions: []string{".xlsx"},
		AllowedTypes:      []string{XLSXType},
		RequiredEntries:   []string{"[Content_Types].xml", "_rels/.rels", "xl/workbook.xml"},
	}
}

// Validator runs the validation stages of a Policy in order.
type Validator struct {
	policy Policy
}

func New(p Policy) *Validator {
	return &Validator{policy: p}
}

// Policy returns the policy the validator enforces.
func (v *Validator) Policy() Policy {
	return v.policy
}

// Validate checks u with the default policy.
func Validate(u *Upload) error {
	return New(DefaultPolicy()).Validate(u)
}

// Validate returns nil when u is a well-formed spreadsheet container, or a
// *RejectionError for the first stage that fails.
func (v *Validator) Validate(u *Upload) error {
	stages := []func(*Upload) error{
		v.checkPresence,
		v.checkExtension,
		v.checkDeclaredType,
		v.checkSize,
		v.checkSignature,
		v.checkContainer,
	}
	for _, stage := range stages {
		if err := stage(u); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) checkPresence(u *Upload) error {
	if u == nil {
		return reject(ReasonMissingFile, "no file in request")
	}
	if strings.TrimSpace(u.Filename) == "" {
		return reject(ReasonMissingFilename, "file has no original name")
	}
	return nil
}

func (v *Validator) checkExtension(u *Upload) error {
	dot := strings.LastIndex(u.Filename, ".")
	if dot < 0 {
		return reject(ReasonMissingExtension, "%q has no extension", u.Filename)
	}
	ext := strings.ToLower(u.Filename[dot:])
	if !contains(v.policy.AllowedExtensions, ext) {
		return reject(ReasonInvalidExtension, "%q is not an allowed extension", ext)
	}
	return nil
}

func (v *Validator) checkDeclaredType(u *Upload) error {
	if !contains(v.policy.AllowedTypes, mediaType(u.DeclaredType)) {
		return reject(ReasonInvalidDeclaredType, "declared type %q is not allowed", u.DeclaredType)
	}
	return nil
}

// checkSize applies the limits to the declared size, then to the buffer
// itself once it is known to exist.
func (v *Validator) checkSize(u *Upload) error {
	if err := v.checkLength(u.Size); err != nil {
		return err
	}
	if u.Data == nil {
		return reject(ReasonMissingBuffer, "file content was not received")
	}
	return v.checkLength(int64(len(u.Data)))
}

func (v *Validator) checkLength(n int64) error {
	if n <= 0 {
		return reject(ReasonEmptyFile, "file is empty")
	}
	if n > v.policy.MaxBytes {
		return reject(ReasonFileTooLarge, "%d bytes exceeds the %d byte limit", n, v.policy.MaxBytes)
	}
	return nil
}

// checkSignature derives the content type from the leading bytes, ignoring
// the filename and declared type.
func (v *Validator) checkSignature(u *Upload) error {
	mtype := mimetype.Detect(u.Data)
	if mtype.Is(unknownType) {
		return reject(ReasonUnrecognizedSignature, "content does not match any known file signature")
	}
	for _, allowed := range v.policy.AllowedTypes {
		if mtype.Is(allowed) {
			return nil
		}
	}
	return reject(ReasonSignatureMismatch, "content is %s", mtype.String())
}

func (v *Validator) checkContainer(u *Upload) error {
	zr, err := zip.NewReader(bytes.NewReader(u.Data), int64(len(u.Data)))
	// Insecure entry names do not make the archive unreadable, and entries are
	// never extracted to disk.
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return reject(ReasonCorruptContainer, "cannot open archive: %v", err)
	}

	entries := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		entries[strings.ReplaceAll(f.Name, `\`, "/")] = true
	}
	var missing []string
	for _, name := range v.policy.RequiredEntries {
		if !entries[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return reject(ReasonInvalidContainerStructure, "archive is missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// mediaType strips parameters and case from a Content-Type value.
func mediaType(v string) string {
	if mt, _, err := mime.ParseMediaType(v); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(v))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
