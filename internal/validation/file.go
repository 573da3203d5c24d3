package validation

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// blockedExtensions are never accepted, whatever their detected type.
var blockedExtensions = map[string]bool{
	".exe": true,
	".bat": true,
	".cmd": true,
	".com": true,
	".msi": true,
	".scr": true,
	".sh":  true,
	".js":  true,
}

// UploadMimeType validates an uploaded file and returns the MIME type to
// record for it. The declared Content-Type wins when it parses; otherwise the
// type is sniffed from the first 512 bytes.
func UploadMimeType(header *multipart.FileHeader, maxSize int64) (string, error) {
	if strings.TrimSpace(header.Filename) == "" {
		return "", fmt.Errorf("file name is required")
	}

	if header.Size == 0 {
		return "", fmt.Errorf("file is empty")
	}

	if maxSize > 0 && header.Size > maxSize {
		maxMB := maxSize / (1 << 20)
		return "", fmt.Errorf("file too large: maximum size is %d MB", maxMB)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if blockedExtensions[ext] {
		return "", fmt.Errorf("invalid file extension: %s", ext)
	}

	if declared := header.Header.Get("Content-Type"); declared != "" {
		mediaType, _, err := mime.ParseMediaType(declared)
		if err == nil && mediaType != "application/octet-stream" {
			return mediaType, nil
		}
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	detected, _, _ := mime.ParseMediaType(http.DetectContentType(buffer[:n]))
	return detected, nil
}
