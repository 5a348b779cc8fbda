// Package upload implements file_upload's storage side (§6.3): decoding
// a base64 payload, validating its extension and size, and writing it
// under the configured uploads directory with a collision-proof name.
package upload

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"reconciled/internal/config"
	"reconciled/pkg/reconerr"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Store decodes a base64 file payload, validates it against cfg, and
// writes it to disk, returning the stored path. The stored basename is
// a random hex prefix plus the sanitized original name — grounded on
// tools.py's _file_upload, which prefixes a uuid4 hex onto the original
// filename to avoid collisions without discarding the human-readable name.
//
// When datePartition is true, the file
// additionally lands under <uploads>/<year>/<month>/<day>/ instead of
// flat in UploadsDir — a supplemented option original_source's flat
// UPLOAD_DIR didn't need but which a long-running multi-tenant service
// benefits from to keep any one directory from growing unbounded.
func Store(cfg config.Config, filename, contentB64 string, datePartition bool) (path string, storedName string, err error) {
	if filename == "" {
		return "", "", reconerr.New(reconerr.SchemaInvalid, "filename must not be empty")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !cfg.ExtensionAllowed(ext) {
		return "", "", reconerr.New(reconerr.UnsupportedType, fmt.Sprintf("extension %q is not allowed", ext))
	}

	content, err := base64.StdEncoding.DecodeString(contentB64)
	if err != nil {
		return "", "", reconerr.Wrap(reconerr.DecodeFailed, "content is not valid base64", err)
	}
	if int64(len(content)) > cfg.UploadMaxBytes {
		return "", "", reconerr.New(reconerr.UnsupportedType, fmt.Sprintf("file exceeds %d byte limit", cfg.UploadMaxBytes))
	}

	prefix := make([]byte, 8)
	if _, err := rand.Read(prefix); err != nil {
		return "", "", reconerr.Wrap(reconerr.ReadFailed, "generate upload prefix", err)
	}
	sanitized := sanitizeBasename(filepath.Base(filename))
	storedName = hex.EncodeToString(prefix) + "_" + sanitized

	dir := cfg.UploadsDir
	if datePartition {
		now := time.Now().UTC()
		dir = filepath.Join(dir, fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", now.Month()), fmt.Sprintf("%02d", now.Day()))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", reconerr.Wrap(reconerr.ReadFailed, "create uploads directory", err)
	}

	fullPath := filepath.Join(dir, storedName)
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return "", "", reconerr.Wrap(reconerr.ReadFailed, "write uploaded file", err)
	}

	return fullPath, storedName, nil
}

// sanitizeBasename strips any character outside a conservative allow-list
// so a crafted filename (path separators, null bytes) can't escape
// UploadsDir or collide with shell-unsafe names downstream.
func sanitizeBasename(name string) string {
	cleaned := unsafeNameChars.ReplaceAllString(name, "_")
	if cleaned == "" {
		return "upload"
	}
	return cleaned
}
