package storage

import (
	"bytes"
	"testing"
)

// a minimal valid PNG header plus padding so DetectContentType sees image/png
func pngBytes(size int) []byte {
	header := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	buf := make([]byte, size)
	copy(buf, header)
	return buf
}

func TestValidateImageUpload(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		maxSize int64
		wantErr bool
	}{
		{
			name:    "small png accepted",
			data:    pngBytes(1024),
			maxSize: 5 * 1024 * 1024,
			wantErr: false,
		},
		{
			name:    "png at the limit accepted",
			data:    pngBytes(4 * 1024 * 1024),
			maxSize: 5 * 1024 * 1024,
			wantErr: false,
		},
		{
			name:    "oversized png rejected",
			data:    pngBytes(6 * 1024 * 1024),
			maxSize: 5 * 1024 * 1024,
			wantErr: true,
		},
		{
			name:    "jpeg accepted",
			data:    append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x00}, 128)...),
			maxSize: 5 * 1024 * 1024,
			wantErr: false,
		},
		{
			name:    "pdf rejected",
			data:    append([]byte("%PDF-1.4"), bytes.Repeat([]byte{0x20}, 128)...),
			maxSize: 5 * 1024 * 1024,
			wantErr: true,
		},
		{
			name:    "plain text rejected",
			data:    []byte("definitely not an image"),
			maxSize: 5 * 1024 * 1024,
			wantErr: true,
		},
		{
			name:    "empty file rejected",
			data:    nil,
			maxSize: 5 * 1024 * 1024,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateImageUpload(tc.data, tc.maxSize)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
