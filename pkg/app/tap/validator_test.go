package tap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		request ExtractRequest
		wantErr bool
		errMsg  string
	}{
		{name: "valid request", request: ExtractRequest{TapePath: "a.tap"}},
		{name: "valid raw", request: ExtractRequest{TapePath: "a.tap", Index: 3, Raw: true}},
		{name: "missing path", request: ExtractRequest{}, wantErr: true, errMsg: "tape path is required"},
		{name: "negative index", request: ExtractRequest{TapePath: "a.tap", Index: -1}, wantErr: true, errMsg: "must not be negative"},
		{name: "header and data", request: ExtractRequest{TapePath: "a.tap", HeaderOnly: true, DataOnly: true}, wantErr: true, errMsg: "both header and data"},
		{name: "raw and disk form", request: ExtractRequest{TapePath: "a.tap", Raw: true, DiskForm: true}, wantErr: true, errMsg: "both raw and disk form"},
		{name: "raw with header", request: ExtractRequest{TapePath: "a.tap", Raw: true, HeaderOnly: true}, wantErr: true, errMsg: "only apply to TAP output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestExplodeRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		request ExplodeRequest
		wantErr bool
	}{
		{name: "valid request", request: ExplodeRequest{TapePath: "a.tap", Directory: "out"}},
		{name: "missing directory", request: ExplodeRequest{TapePath: "a.tap"}, wantErr: true},
		{name: "missing tape", request: ExplodeRequest{Directory: "out"}, wantErr: true},
		{name: "raw and disk form", request: ExplodeRequest{TapePath: "a.tap", Directory: "out", Raw: true, DiskForm: true}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
