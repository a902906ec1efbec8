package models

import "testing"

func TestNormalizeDocument(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bare digits", input: "00112345678", want: "001-1234567-8"},
		{name: "already formatted", input: "001-1234567-8", want: "001-1234567-8"},
		{name: "digits with spaces", input: "001 1234567 8", want: "001-1234567-8"},
		{name: "too short passes through", input: "12345", want: "12345"},
		{name: "too long passes through", input: "001123456789", want: "001123456789"},
		{name: "whitespace trimmed", input: "  12345  ", want: "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDocument(tt.input); got != tt.want {
				t.Errorf("NormalizeDocument(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}

func strPtr(s string) *string { return &s }

func TestClientValidate(t *testing.T) {
	tests := []struct {
		name    string
		client  Client
		wantErr bool
	}{
		{
			name:   "minimal valid client",
			client: Client{Name: "Maria Perez", Document: "001-1234567-8"},
		},
		{
			name:    "missing name",
			client:  Client{Document: "001-1234567-8"},
			wantErr: true,
		},
		{
			name:    "malformed document",
			client:  Client{Name: "Maria Perez", Document: "0011234"},
			wantErr: true,
		},
		{
			name:    "malformed phone",
			client:  Client{Name: "Maria Perez", Document: "001-1234567-8", Phone: strPtr("8095551234")},
			wantErr: true,
		},
		{
			name:   "valid phone",
			client: Client{Name: "Maria Perez", Document: "001-1234567-8", Phone: strPtr("809-555-1234")},
		},
		{
			name: "guarantor with bad document",
			client: Client{
				Name:              "Maria Perez",
				Document:          "001-1234567-8",
				HasGuarantor:      true,
				GuarantorDocument: strPtr("not-a-document"),
			},
			wantErr: true,
		},
		{
			name: "guarantor fields valid",
			client: Client{
				Name:              "Maria Perez",
				Document:          "001-1234567-8",
				HasGuarantor:      true,
				GuarantorName:     strPtr("Juan Perez"),
				GuarantorDocument: strPtr("002-7654321-0"),
				GuarantorPhone:    strPtr("809-555-0000"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.client.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestClientValidateClearsGuarantorFields(t *testing.T) {
	client := Client{
		Name:              "Maria Perez",
		Document:          "001-1234567-8",
		HasGuarantor:      false,
		GuarantorName:     strPtr("Juan Perez"),
		GuarantorDocument: strPtr("002-7654321-0"),
		GuarantorPhone:    strPtr("809-555-0000"),
		GuarantorAddress:  strPtr("Calle 1"),
	}

	if err := client.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.GuarantorName != nil || client.GuarantorDocument != nil ||
		client.GuarantorPhone != nil || client.GuarantorAddress != nil {
		t.Error("guarantor fields should be cleared when has_guarantor is false")
	}
}
