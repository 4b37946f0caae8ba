package downloader

import (
	"errors"
	"testing"

	"github.com/moffa90/go-npedl/npe"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		msg    string
	}{
		{
			name:   "device mismatch",
			err:    &DeviceMismatchError{Image: npe.IXP43X, Running: npe.IXP42X},
			target: npe.ErrDevice,
			msg:    "device mismatch: image targets IXP43X, running on IXP42X",
		},
		{
			name:   "no image",
			err:    &NoImageError{Engine: npe.NPEA},
			target: npe.ErrFail,
			msg:    "no valid image loaded on NPE-A",
		},
		{
			name:   "not initialized",
			err:    ErrNotInitialized,
			target: npe.ErrFail,
			msg:    "downloader: failure: not initialized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.target) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.target)
			}
			if got := tt.err.Error(); got != tt.msg {
				t.Errorf("Error() = %q, want %q", got, tt.msg)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		kv   []interface{}
		want string
	}{
		{nil, "loaded"},
		{[]interface{}{"engine", "NPE-B", "words", 12}, "loaded engine=NPE-B words=12"},
		{[]interface{}{"engine"}, "loaded engine=(MISSING)"},
	}
	for _, tt := range tests {
		if got := format("loaded", tt.kv); got != tt.want {
			t.Errorf("format(%v) = %q, want %q", tt.kv, got, tt.want)
		}
	}
}
