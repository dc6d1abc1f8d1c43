package storage

import (
	"context"
	"testing"

	"github.com/quillhollow/budgeteer/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name      string
		str       string
		paramName string
		wantErr   bool
	}{
		{
			name:      "valid string",
			str:       "checking",
			paramName: "name",
			wantErr:   false,
		},
		{
			name:      "empty string",
			str:       "",
			paramName: "name",
			wantErr:   true,
		},
		{
			name:      "whitespace only",
			str:       "   ",
			paramName: "name",
			wantErr:   true,
		},
		{
			name:      "string with surrounding spaces",
			str:       "  checking  ",
			paramName: "name",
			wantErr:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, tt.paramName)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAccount(t *testing.T) {
	tests := []struct {
		account *model.Account
		name    string
		wantErr bool
	}{
		{
			name:    "valid account",
			account: &model.Account{ID: "a-1", Name: "checking", Kind: model.KindReal},
			wantErr: false,
		},
		{
			name:    "nil account",
			account: nil,
			wantErr: true,
		},
		{
			name:    "missing id",
			account: &model.Account{Name: "checking", Kind: model.KindReal},
			wantErr: true,
		},
		{
			name:    "missing name",
			account: &model.Account{ID: "a-1", Kind: model.KindReal},
			wantErr: true,
		},
		{
			name:    "invalid kind",
			account: &model.Account{ID: "a-1", Name: "checking", Kind: "savings"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAccount(tt.account)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAccount() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePage(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		offset  int
		wantErr bool
	}{
		{name: "first page", limit: 10, offset: 0, wantErr: false},
		{name: "later page", limit: 10, offset: 30, wantErr: false},
		{name: "zero limit", limit: 0, offset: 0, wantErr: true},
		{name: "negative limit", limit: -1, offset: 0, wantErr: true},
		{name: "negative offset", limit: 10, offset: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePage(tt.limit, tt.offset)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
